package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/doorward/gatekeeper/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GATEKEEPER_AUTHORITY_URL", "http://authority.local/members")
	t.Setenv("GATEKEEPER_READER_PATH", "/dev/rfid0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("expected env=dev, got %q", cfg.Env)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.CacheMaxAge != 12*time.Hour {
		t.Errorf("expected 12h max age, got %s", cfg.CacheMaxAge)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("expected 1s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.EventRetentionDays != 30 {
		t.Errorf("expected 30d retention, got %d", cfg.EventRetentionDays)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GATEKEEPER_ENV", "prod")
	t.Setenv("GATEKEEPER_CACHE_MAX_AGE", "6h")
	t.Setenv("GATEKEEPER_MODULE_ID", "door-annex")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "prod" {
		t.Errorf("expected env=prod, got %q", cfg.Env)
	}
	if cfg.CacheMaxAge != 6*time.Hour {
		t.Errorf("expected 6h, got %s", cfg.CacheMaxAge)
	}
	if cfg.ModuleID != "door-annex" {
		t.Errorf("expected door-annex, got %q", cfg.ModuleID)
	}
}

func TestLoad_EmptyDBPathStaysEmpty(t *testing.T) {
	setRequired(t)
	// Present-but-empty overrides the default; it is how a dev run asks
	// for the in-memory stores.
	t.Setenv("GATEKEEPER_DB_PATH", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "" {
		t.Errorf("expected empty db path, got %q", cfg.DBPath)
	}
}

func TestLoad_UnknownEnvFallsBackToDev(t *testing.T) {
	setRequired(t)
	t.Setenv("GATEKEEPER_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("expected fail-soft to dev, got %q", cfg.Env)
	}
}

func TestLoad_MissingAuthorityURLFails(t *testing.T) {
	// t.Setenv would leave the variable present-but-empty, which
	// envconfig accepts; it has to be genuinely unset.
	t.Setenv("GATEKEEPER_AUTHORITY_URL", "placeholder")
	os.Unsetenv("GATEKEEPER_AUTHORITY_URL")
	t.Setenv("GATEKEEPER_READER_PATH", "/dev/rfid0")

	if _, err := config.Load(); err == nil {
		t.Error("expected error for missing authority url")
	}
}
