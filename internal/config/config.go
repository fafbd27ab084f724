package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Anthropic provider
	AnthropicAPIKey string
	AnthropicModel  string

	// Pricing, USD per million tokens. Zero disables cost estimates.
	InputCostPerMTok  float64
	OutputCostPerMTok float64

	// Chunking defaults
	ChunkTokenThreshold int
	OverlapRate         float64
	WordTokenRate       float64
	ApplyChunking       bool

	// Dispatch
	ConcurrencyLimit int
	MaxRetries       int
	RetryBaseDelay   time.Duration

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Report delivery webhook. Empty URL disables delivery.
	CallbackURL    string
	CallbackAPIKey string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("LLMEXTRACT_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		InputCostPerMTok:  envFloat("INPUT_COST_PER_MTOK", 3.0),
		OutputCostPerMTok: envFloat("OUTPUT_COST_PER_MTOK", 15.0),

		ChunkTokenThreshold: envInt("CHUNK_TOKEN_THRESHOLD", 2048),
		OverlapRate:         envFloat("OVERLAP_RATE", 0.1),
		WordTokenRate:       envFloat("WORD_TOKEN_RATE", 0.75),
		ApplyChunking:       envBool("APPLY_CHUNKING", true),

		ConcurrencyLimit: envInt("CONCURRENCY_LIMIT", 4),
		MaxRetries:       envInt("MAX_RETRIES", 3),
		RetryBaseDelay:   envDuration("RETRY_BASE_DELAY", time.Second),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		CallbackURL:    os.Getenv("CALLBACK_URL"),
		CallbackAPIKey: os.Getenv("CALLBACK_API_KEY"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.ChunkTokenThreshold <= 0 {
		cfg.ChunkTokenThreshold = 2048
	}
	if cfg.OverlapRate < 0 || cfg.OverlapRate >= 1 {
		cfg.OverlapRate = 0.1
	}
	if cfg.WordTokenRate <= 0 || cfg.WordTokenRate > 1 {
		cfg.WordTokenRate = 0.75
	}
	if cfg.ConcurrencyLimit <= 0 {
		cfg.ConcurrencyLimit = 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("LLMEXTRACT_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.CallbackURL != "" && c.CallbackAPIKey == "" {
		return fmt.Errorf("CALLBACK_API_KEY is required when CALLBACK_URL is set")
	}
	return nil
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
