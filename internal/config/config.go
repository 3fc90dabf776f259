package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is constructed once per
// process and passed explicitly into the pipeline, never read from ambient
// state, so the merge and completeness logic stay pure and testable.
type Config struct {
	Server   ServerConfig
	Limits   LimitsConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Pipeline PipelineConfig
	CORS     CORSConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LimitsConfig holds upload limits.
type LimitsConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (l *LimitsConfig) MaxFileSizeBytes() int64 {
	return l.MaxFileSizeMB * 1024 * 1024
}

// OCRConfig holds PDF rasterization and text recognition settings.
type OCRConfig struct {
	DPI          int    `mapstructure:"dpi"`
	PSM          int    `mapstructure:"psm"`
	Lang         string `mapstructure:"lang"`
	MaxPages     int    `mapstructure:"max_pages"`
	PdftoppmBin  string `mapstructure:"pdftoppm_bin"`
	TesseractBin string `mapstructure:"tesseract_bin"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// VisionConfig holds multimodal model provider settings.
type VisionConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// PipelineConfig holds the decision thresholds and retry policy of the
// extraction pipeline.
type PipelineConfig struct {
	CompletenessThreshold float64       `mapstructure:"completeness_threshold"`
	MaxAttempts           int           `mapstructure:"max_attempts"`
	RetryBaseDelay        time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay         time.Duration `mapstructure:"retry_max_delay"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	MaxConcurrentExternal int64         `mapstructure:"max_concurrent_external"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the FISCALIO_
// prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FISCALIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.environment", "development")

	// Upload limits
	v.SetDefault("limits.max_file_size_mb", 200)

	// OCR defaults. 300 DPI balances recognition quality against latency
	// for Latin-script fiscal documents; PSM 6 suits dense form layouts.
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.psm", 6)
	v.SetDefault("ocr.lang", "por")
	v.SetDefault("ocr.max_pages", 3)
	v.SetDefault("ocr.pdftoppm_bin", "pdftoppm")
	v.SetDefault("ocr.tesseract_bin", "tesseract")
	v.SetDefault("ocr.timeout_secs", 60)

	// Vision defaults
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.model", "gpt-4o")
	v.SetDefault("vision.timeout_secs", 120)

	// Pipeline defaults. An extraction covering less than 70% of the
	// critical field set triggers vision corroboration.
	v.SetDefault("pipeline.completeness_threshold", 0.70)
	v.SetDefault("pipeline.max_attempts", 3)
	v.SetDefault("pipeline.retry_base_delay", "1s")
	v.SetDefault("pipeline.retry_max_delay", "30s")
	v.SetDefault("pipeline.request_timeout", "120s")
	v.SetDefault("pipeline.max_concurrent_external", 4)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "FISCALIO_SERVER_PORT",
		"server.read_timeout":              "FISCALIO_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "FISCALIO_SERVER_WRITE_TIMEOUT",
		"server.environment":               "FISCALIO_SERVER_ENVIRONMENT",
		"limits.max_file_size_mb":          "FISCALIO_LIMITS_MAX_FILE_SIZE_MB",
		"ocr.dpi":                          "FISCALIO_OCR_DPI",
		"ocr.psm":                          "FISCALIO_OCR_PSM",
		"ocr.lang":                         "FISCALIO_OCR_LANG",
		"ocr.max_pages":                    "FISCALIO_OCR_MAX_PAGES",
		"ocr.pdftoppm_bin":                 "FISCALIO_OCR_PDFTOPPM_BIN",
		"ocr.tesseract_bin":                "FISCALIO_OCR_TESSERACT_BIN",
		"ocr.timeout_secs":                 "FISCALIO_OCR_TIMEOUT_SECS",
		"vision.api_key":                   "FISCALIO_VISION_API_KEY",
		"vision.model":                     "FISCALIO_VISION_MODEL",
		"vision.timeout_secs":              "FISCALIO_VISION_TIMEOUT_SECS",
		"pipeline.completeness_threshold":  "FISCALIO_PIPELINE_COMPLETENESS_THRESHOLD",
		"pipeline.max_attempts":            "FISCALIO_PIPELINE_MAX_ATTEMPTS",
		"pipeline.retry_base_delay":        "FISCALIO_PIPELINE_RETRY_BASE_DELAY",
		"pipeline.retry_max_delay":         "FISCALIO_PIPELINE_RETRY_MAX_DELAY",
		"pipeline.request_timeout":         "FISCALIO_PIPELINE_REQUEST_TIMEOUT",
		"pipeline.max_concurrent_external": "FISCALIO_PIPELINE_MAX_CONCURRENT_EXTERNAL",
		"cors.allowed_origins":             "FISCALIO_CORS_ALLOWED_ORIGINS",
		"log.level":                        "FISCALIO_LOG_LEVEL",
		"log.format":                       "FISCALIO_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// PaaS platforms set a PORT env var. Use it if FISCALIO_SERVER_PORT is
	// not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FISCALIO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Limits = LimitsConfig{
		MaxFileSizeMB: v.GetInt64("limits.max_file_size_mb"),
	}
	cfg.OCR = OCRConfig{
		DPI:          v.GetInt("ocr.dpi"),
		PSM:          v.GetInt("ocr.psm"),
		Lang:         v.GetString("ocr.lang"),
		MaxPages:     v.GetInt("ocr.max_pages"),
		PdftoppmBin:  v.GetString("ocr.pdftoppm_bin"),
		TesseractBin: v.GetString("ocr.tesseract_bin"),
		TimeoutSecs:  v.GetInt("ocr.timeout_secs"),
	}
	cfg.Vision = VisionConfig{
		APIKey:      v.GetString("vision.api_key"),
		Model:       v.GetString("vision.model"),
		TimeoutSecs: v.GetInt("vision.timeout_secs"),
	}
	cfg.Pipeline = PipelineConfig{
		CompletenessThreshold: v.GetFloat64("pipeline.completeness_threshold"),
		MaxAttempts:           v.GetInt("pipeline.max_attempts"),
		RetryBaseDelay:        v.GetDuration("pipeline.retry_base_delay"),
		RetryMaxDelay:         v.GetDuration("pipeline.retry_max_delay"),
		RequestTimeout:        v.GetDuration("pipeline.request_timeout"),
		MaxConcurrentExternal: v.GetInt64("pipeline.max_concurrent_external"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}
