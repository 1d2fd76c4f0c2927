package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.SessionStarted()
	r.SessionStarted()
	r.SessionEnded()
	r.StepReached("revenue")
	r.OutcomeClassified(entity.TierGuardian)
	r.OutcomeClassified(entity.TierGuardian)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.sessionsTotal.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.outcomesTotal.WithLabelValues("GUARDIAN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stepsReached.WithLabelValues("revenue")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.OutcomeClassified(entity.TierEmpire)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `intake_outcomes_total{tier="EMPIRE"} 1`)
}
