package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscalio/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)

	assert.Equal(t, int64(200), cfg.Limits.MaxFileSizeMB)
	assert.Equal(t, int64(200*1024*1024), cfg.Limits.MaxFileSizeBytes())

	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, "por", cfg.OCR.Lang)
	assert.Equal(t, 3, cfg.OCR.MaxPages)
	assert.Equal(t, "pdftoppm", cfg.OCR.PdftoppmBin)
	assert.Equal(t, "tesseract", cfg.OCR.TesseractBin)

	assert.Equal(t, "gpt-4o", cfg.Vision.Model)
	assert.Equal(t, 120, cfg.Vision.TimeoutSecs)

	assert.Equal(t, 0.70, cfg.Pipeline.CompletenessThreshold)
	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Pipeline.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.RetryMaxDelay)
	assert.Equal(t, 120*time.Second, cfg.Pipeline.RequestTimeout)
	assert.Equal(t, int64(4), cfg.Pipeline.MaxConcurrentExternal)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FISCALIO_SERVER_PORT", ":9090")
	t.Setenv("FISCALIO_OCR_LANG", "por+eng")
	t.Setenv("FISCALIO_VISION_API_KEY", "sk-test")
	t.Setenv("FISCALIO_PIPELINE_COMPLETENESS_THRESHOLD", "0.85")
	t.Setenv("FISCALIO_PIPELINE_MAX_ATTEMPTS", "5")
	t.Setenv("FISCALIO_PIPELINE_RETRY_BASE_DELAY", "250ms")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "por+eng", cfg.OCR.Lang)
	assert.Equal(t, "sk-test", cfg.Vision.APIKey)
	assert.Equal(t, 0.85, cfg.Pipeline.CompletenessThreshold)
	assert.Equal(t, 5, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.RetryBaseDelay)
}

func TestLoad_PaaSPortFallback(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Port)
}

func TestLoad_ExplicitPortBeatsPaaSPort(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("FISCALIO_SERVER_PORT", ":9999")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Port)
}

func TestLoad_CORSOriginsSplit(t *testing.T) {
	t.Setenv("FISCALIO_CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORS.AllowedOrigins)
}
