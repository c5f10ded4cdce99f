package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/bookgest/internal/abx"
)

type Config struct {
	Port     string
	LogLevel string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL     time.Duration
	JobTimeout time.Duration

	// Parsing and classification
	ParseMode        string
	ClassifierWindow int

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int

	// PDF
	PDFFallbackPdftotext bool

	// AllowDuplicates turns off the parsed-text dedup index.
	AllowDuplicates bool
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8090"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:     envDuration("JOB_TTL", 1*time.Hour),
		JobTimeout: envDuration("JOB_TIMEOUT", 2*time.Minute),

		ParseMode:        envOr("PARSE_MODE", "tolerant"),
		ClassifierWindow: envInt("CLASSIFIER_WINDOW", 3000),

		DefaultChunkSize:    envInt("DEFAULT_CHUNK_SIZE", 1500),
		DefaultChunkOverlap: envInt("DEFAULT_CHUNK_OVERLAP", 200),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		AllowDuplicates: envBool("ALLOW_DUPLICATES", false),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	if cfg.ClassifierWindow <= 0 {
		cfg.ClassifierWindow = 3000
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 1500
	}
	if cfg.DefaultChunkOverlap <= 0 {
		cfg.DefaultChunkOverlap = 200
	}

	return cfg
}

func (c Config) Validate() error {
	if _, err := abx.ParseMode(c.ParseMode); err != nil {
		return fmt.Errorf("PARSE_MODE: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.DefaultChunkOverlap >= c.DefaultChunkSize {
		return fmt.Errorf("DEFAULT_CHUNK_OVERLAP (%d) must be smaller than DEFAULT_CHUNK_SIZE (%d)", c.DefaultChunkOverlap, c.DefaultChunkSize)
	}
	return nil
}

// Mode returns the configured parse mode, tolerant if invalid.
func (c Config) Mode() abx.Mode {
	m, _ := abx.ParseMode(c.ParseMode)
	return m
}

// Level parses LogLevel as a slog level name such as "debug" or "warn".
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
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
