package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.PDOK.UserAgent != "pdok-services" {
		t.Errorf("PDOK.UserAgent = %q, want %q", cfg.PDOK.UserAgent, "pdok-services")
	}
	if cfg.PDOK.Timeout != 0 {
		t.Errorf("PDOK.Timeout = %v, want 0", cfg.PDOK.Timeout)
	}
	if cfg.Batch.Concurrency != 1 {
		t.Errorf("Batch.Concurrency = %d, want 1", cfg.Batch.Concurrency)
	}
	if cfg.Batch.InputCRS != "EPSG:4326" {
		t.Errorf("Batch.InputCRS = %q, want EPSG:4326", cfg.Batch.InputCRS)
	}
	if got := cfg.GetServerAddr(); got != ":8080" {
		t.Errorf("GetServerAddr() = %q, want %q", got, ":8080")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	content := []byte(`
server:
  port: 9090
pdok:
  timeout: 5s
  maxRetries: 3
batch:
  concurrency: 4
  targetCRS: EPSG:28992
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.PDOK.Timeout != 5*time.Second {
		t.Errorf("PDOK.Timeout = %v, want 5s", cfg.PDOK.Timeout)
	}
	if cfg.PDOK.MaxRetries != 3 {
		t.Errorf("PDOK.MaxRetries = %d, want 3", cfg.PDOK.MaxRetries)
	}
	if cfg.Batch.Concurrency != 4 {
		t.Errorf("Batch.Concurrency = %d, want 4", cfg.Batch.Concurrency)
	}
	if cfg.Batch.TargetCRS != "EPSG:28992" {
		t.Errorf("Batch.TargetCRS = %q, want EPSG:28992", cfg.Batch.TargetCRS)
	}
	// untouched keys keep their defaults
	if cfg.Batch.XField != "x" {
		t.Errorf("Batch.XField = %q, want x", cfg.Batch.XField)
	}
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PDOK_SERVICES_BATCH_CONCURRENCY", "0")

	if _, err := Load(""); err == nil {
		t.Error("Load() expected error for zero concurrency but got none")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
