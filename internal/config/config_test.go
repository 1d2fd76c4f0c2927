package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Defaults(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":8080")

	cfg, err := parseEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 300*time.Millisecond, cfg.FlowCfg.AutoAdvanceDelay)
	assert.Equal(t, 3*time.Second, cfg.FlowCfg.AnalysisDelay)
	assert.Equal(t, 30*time.Minute, cfg.SessionCfg.TTL)
	assert.Equal(t, uint(3), cfg.CallbackCfg.Retry.Attempts)
	assert.Equal(t, 10*time.Second, cfg.CallbackCfg.RequestTimeout)
	assert.NoError(t, validateConfig(cfg))
}

func TestParseEnv_MissingServerAddr(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")

	_, err := parseEnv()
	assert.Error(t, err)
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9000")
	t.Setenv("FLOW_ANALYSIS_DELAY", "1500ms")
	t.Setenv("CALLBACK_RETRY_ATTEMPTS", "5")
	t.Setenv("TELEGRAM_RATE_LIMIT_BURST", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := parseEnv()
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.FlowCfg.AnalysisDelay)
	assert.Equal(t, uint(5), cfg.CallbackCfg.Retry.Attempts)
	assert.Equal(t, 2, cfg.TelegramCfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestValidateConfig(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":8080")
	t.Setenv("TELEGRAM_RATE_LIMIT_PER_MINUTE", "500")
	t.Setenv("DB_MIN_CONNS", "50")

	cfg, err := parseEnv()
	require.NoError(t, err)

	err = validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_RATE_LIMIT_PER_MINUTE")
	assert.Contains(t, err.Error(), "DB_MIN_CONNS")
}

func TestLoadQuestionCatalog_File(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, loadQuestionCatalog(cfg, "question_catalog.json"))

	assert.Equal(t, intake.DefaultQuestions(), cfg.Questions)
}

func TestLoadQuestionCatalog_MissingFileFallsBack(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, loadQuestionCatalog(cfg, filepath.Join(t.TempDir(), "nope.json")))

	assert.Len(t, cfg.Questions, len(intake.DefaultQuestions()))
}

func TestLoadQuestionCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"empty.json":      "",
		"broken.json":     "{",
		"duplicate.json":  `{"questions":[{"id":"a","type":"currency"},{"id":"a","type":"contact"}]}`,
		"no_revenue.json": `{"questions":[{"id":"contact","type":"contact"}]}`,
	}

	for name, content := range tests {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		err := loadQuestionCatalog(&Config{}, path)
		assert.Error(t, err, name)
		switch name {
		case "duplicate.json":
			assert.ErrorIs(t, err, entity.ErrDuplicateID)
		case "no_revenue.json":
			assert.ErrorIs(t, err, entity.ErrMissingQuestion)
		}
	}
}

func TestGetEnvFile(t *testing.T) {
	assert.Equal(t, ".env.prod", getEnvFile("production"))
	assert.Equal(t, ".env.local", getEnvFile("dev"))
	assert.Equal(t, ".env.staging", getEnvFile("staging"))
}
