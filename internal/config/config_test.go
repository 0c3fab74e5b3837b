package config_test

import (
	"testing"
	"time"

	"marketshopper/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "METRICS_PORT", "DATABASE_URL", "REDIS_URL", "REFRESH_INTERVAL_SECONDS"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", cfg.MetricsPort)
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want 5m", cfg.RefreshInterval)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" {
		t.Errorf("store URLs = %q/%q, want empty", cfg.DatabaseURL, cfg.RedisURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("REFRESH_INTERVAL_SECONDS", "60")

	cfg := config.Load()
	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.RefreshInterval != time.Minute {
		t.Errorf("RefreshInterval = %v, want 1m", cfg.RefreshInterval)
	}
}

func TestLoad_BadIntervalFallsBack(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL_SECONDS", "not-a-number")
	if cfg := config.Load(); cfg.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want default", cfg.RefreshInterval)
	}
}
