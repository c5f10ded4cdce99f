package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/bookgest/internal/abx"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "WORKER_COUNT", "JOB_TIMEOUT", "PARSE_MODE", "CLASSIFIER_WINDOW", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port %q, got %q", "8090", cfg.Port)
	}
	if cfg.WorkerCount != 4 || cfg.JobTimeout != 2*time.Minute || cfg.ClassifierWindow != 3000 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Mode() != abx.ModeTolerant {
		t.Errorf("expected tolerant mode, got %v", cfg.Mode())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("PARSE_MODE", "strict")
	t.Setenv("JOB_TTL", "90s")
	t.Setenv("LOG_LEVEL", "debug")
	cfg := Load()

	if cfg.WorkerCount != 4 {
		t.Errorf("expected non-positive worker count to fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.Mode() != abx.ModeStrict {
		t.Errorf("expected strict mode, got %v", cfg.Mode())
	}
	if cfg.JobTTL != 90*time.Second {
		t.Errorf("expected 90s TTL, got %v", cfg.JobTTL)
	}
	if l, err := cfg.Level(); err != nil || l != slog.LevelDebug {
		t.Errorf("expected debug level, got %v (%v)", l, err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.ParseMode = "sloppy"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad parse mode")
	}

	cfg = Load()
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad log level")
	}

	cfg = Load()
	cfg.DefaultChunkSize, cfg.DefaultChunkOverlap = 100, 100
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for overlap >= chunk size")
	}
}
