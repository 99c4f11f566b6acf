// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a YAML config file into a temp dir and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cadence.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
database:
  path: /var/lib/cadence/catalog.duckdb
model_store:
  path: /var/lib/cadence/models
`

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path != "" || cfg.ModelStore.Path != "" {
		t.Errorf("storage paths must have no default, got %q and %q", cfg.Database.Path, cfg.ModelStore.Path)
	}
	if cfg.Recommend.DefaultK != 10 {
		t.Errorf("Recommend.DefaultK = %d, want 10", cfg.Recommend.DefaultK)
	}
	if cfg.Recommend.MaxK != 50 {
		t.Errorf("Recommend.MaxK = %d, want 50", cfg.Recommend.MaxK)
	}
	if cfg.Recommend.ScoreTimeout != 250*time.Millisecond {
		t.Errorf("Recommend.ScoreTimeout = %v, want 250ms", cfg.Recommend.ScoreTimeout)
	}
	if !cfg.Recommend.Breaker.Enabled {
		t.Error("Recommend.Breaker.Enabled should be true by default")
	}
	if cfg.Recommend.CacheEnabled {
		t.Error("Recommend.CacheEnabled should be false by default")
	}
	if cfg.Refit.Interval != 6*time.Hour {
		t.Errorf("Refit.Interval = %v, want 6h", cfg.Refit.Interval)
	}
	if cfg.ModelStore.KeepVersions != 3 {
		t.Errorf("ModelStore.KeepVersions = %d, want 3", cfg.ModelStore.KeepVersions)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("Server.CORSOrigins = %v, want [*]", cfg.Server.CORSOrigins)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_RequiresPath(t *testing.T) {
	if _, err := Load(""); !errors.Is(err, ErrNoConfigPath) {
		t.Errorf("Load(\"\") error = %v, want ErrNoConfigPath", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing file) succeeded, want error")
	}
}

func TestLoad_MinimalFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/var/lib/cadence/catalog.duckdb" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Refit.ALS.Factors != 32 {
		t.Errorf("Refit.ALS.Factors = %d, want default 32", cfg.Refit.ALS.Factors)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
server:
  port: 9090
  cors_origins:
    - https://music.example.com
recommend:
  max_k: 25
  score_timeout: 100ms
  cache_enabled: true
refit:
  interval: 30m
  als:
    factors: 8
logging:
  level: debug
  format: console
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://music.example.com" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Recommend.MaxK != 25 || cfg.Recommend.DefaultK != 10 {
		t.Errorf("Recommend K = (%d, %d), want (10, 25)", cfg.Recommend.DefaultK, cfg.Recommend.MaxK)
	}
	if cfg.Recommend.ScoreTimeout != 100*time.Millisecond {
		t.Errorf("Recommend.ScoreTimeout = %v, want 100ms", cfg.Recommend.ScoreTimeout)
	}
	if !cfg.Recommend.CacheEnabled {
		t.Error("Recommend.CacheEnabled = false, want true")
	}
	if cfg.Refit.Interval != 30*time.Minute || cfg.Refit.ALS.Factors != 8 {
		t.Errorf("Refit = (%v, %d factors), want (30m, 8)", cfg.Refit.Interval, cfg.Refit.ALS.Factors)
	}
	if cfg.Refit.ALS.Iterations != 15 {
		t.Errorf("Refit.ALS.Iterations = %d, want default 15", cfg.Refit.ALS.Iterations)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("MODEL_STORE_PATH", "/srv/models")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REFIT_INTERVAL", "2h")
	t.Setenv("CADENCE_UNMAPPED", "ignored")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.ModelStore.Path != "/srv/models" {
		t.Errorf("ModelStore.Path = %q, want /srv/models", cfg.ModelStore.Path)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.Server.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Refit.Interval != 2*time.Hour {
		t.Errorf("Refit.Interval = %v, want 2h", cfg.Refit.Interval)
	}
}

func TestLoad_PathsRequired(t *testing.T) {
	_, err := Load(writeConfig(t, "logging:\n  level: info\n"))
	if err == nil || !strings.Contains(err.Error(), "database.path") {
		t.Errorf("Load() error = %v, want database.path required", err)
	}

	_, err = Load(writeConfig(t, "database:\n  path: /tmp/c.duckdb\n"))
	if err == nil || !strings.Contains(err.Error(), "model_store.path") {
		t.Errorf("Load() error = %v, want model_store.path required", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DUCKDB_PATH", "database.path"},
		{"MODEL_STORE_PATH", "model_store.path"},
		{"HTTP_PORT", "server.port"},
		{"DISABLE_RATE_LIMIT", "server.rate_limit_disabled"},
		{"LOG_LEVEL", "logging.level"},
		{"RECOMMEND_MAX_K", "recommend.max_k"},
		{"REFIT_ALS_WORKERS", "refit.als.num_workers"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
