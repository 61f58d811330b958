package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey      string
	CORSOrigins []string

	// Completion service
	LLMProvider    string
	LLMAPIKey      string
	LLMModel       string
	LLMBaseURL     string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration
	LLMMaxRetries  int

	// Chunking
	ChunkMaxLen     int
	ContinueOnError bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// OCR
	TesseractBin  string
	TesseractLang string
	TessdataDir   string
	TesseractPSM  int

	// PDF
	PdftotextBin         string
	PdftoppmBin          string
	PDFFallbackPdftotext bool
	PDFOCRFallback       bool
	PDFOCRDPI            int
	PDFOCRMaxPages       int

	// Publish target for edited tables.
	PublishURL    string
	PublishAPIKey string

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey:      os.Getenv("MCQGEST_API_KEY"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		LLMProvider:    strings.ToLower(envOr("LLM_PROVIDER", "groq")),
		LLMModel:       os.Getenv("LLM_MODEL"),
		LLMBaseURL:     os.Getenv("LLM_BASE_URL"),
		LLMTemperature: envFloat("LLM_TEMPERATURE", 0.25),
		LLMMaxTokens:   envInt("LLM_MAX_TOKENS", 1024),
		LLMTimeout:     envDuration("LLM_TIMEOUT", 120*time.Second),
		LLMMaxRetries:  envInt("LLM_MAX_RETRIES", 3),

		ChunkMaxLen:     envInt("CHUNK_MAX_LEN", 4000),
		ContinueOnError: envBool("CONTINUE_ON_ERROR", false),

		WorkerCount:  envInt("WORKER_COUNT", 1),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 26214400), // 25MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		TesseractBin:  envOr("TESSERACT_BIN", "tesseract"),
		TesseractLang: envOr("TESSERACT_LANG", "eng"),
		TessdataDir:   os.Getenv("TESSDATA_DIR"),
		TesseractPSM:  envInt("TESSERACT_PSM", 0),

		PdftotextBin:         envOr("PDFTOTEXT_BIN", "pdftotext"),
		PdftoppmBin:          envOr("PDFTOPPM_BIN", "pdftoppm"),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		PDFOCRFallback:       envBool("PDF_OCR_FALLBACK", true),
		PDFOCRDPI:            envInt("PDF_OCR_DPI", 300),
		PDFOCRMaxPages:       envInt("PDF_OCR_MAX_PAGES", 50),

		PublishURL:    os.Getenv("PUBLISH_URL"),
		PublishAPIKey: os.Getenv("PUBLISH_API_KEY"),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}
	cfg.LLMAPIKey = envOr("LLM_API_KEY", providerKey(cfg.LLMProvider))

	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ChunkMaxLen <= 0 {
		c.ChunkMaxLen = 4000
	}
	if c.LLMMaxTokens <= 0 {
		c.LLMMaxTokens = 1024
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 120 * time.Second
	}
	if c.LLMMaxRetries < 0 {
		c.LLMMaxRetries = 0
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 16
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 26214400
	}
	if c.JobTTL <= 0 {
		c.JobTTL = 1 * time.Hour
	}
	if c.PDFOCRDPI <= 0 {
		c.PDFOCRDPI = 300
	}
}

// ValidateLLM checks the settings every entry point needs to reach the completion service.
func (c Config) ValidateLLM() error {
	switch c.LLMProvider {
	case "groq", "openai", "anthropic":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of groq, openai, anthropic (got %q)", c.LLMProvider)
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	return nil
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if err := c.ValidateLLM(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("MCQGEST_API_KEY is required")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("GROQ_API_KEY")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
