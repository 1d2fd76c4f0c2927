package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sessionapi "github.com/sellershield/intake-backend/internal/api/session"
	"github.com/sellershield/intake-backend/internal/intake"
	"github.com/sellershield/intake-backend/internal/pkg/validator"
	sessionuc "github.com/sellershield/intake-backend/internal/usecase/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(t *testing.T, logger *zap.Logger) http.Handler {
	t.Helper()

	uc := sessionuc.NewUsecase(intake.MustCatalog(intake.DefaultQuestions()), sessionuc.Config{}, nil, nil, logger)
	t.Cleanup(func() { _ = uc.Shutdown(t.Context()) })

	handler := sessionapi.NewHandler(uc, validator.NewValidator())
	return SetupRouter(handler, RouterConfig{}, logger)
}

func TestSetupRouter_LogsClientAddressFromProxyHeaders(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := newTestRouter(t, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("HTTP request handled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "203.0.113.7", entries[0].ContextMap()["remote_addr"])
}

func TestSetupRouter_Routes(t *testing.T) {
	router := newTestRouter(t, zap.NewNop())

	for path, want := range map[string]int{
		"/health":  http.StatusOK,
		"/catalog": http.StatusOK,
		"/metrics": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
