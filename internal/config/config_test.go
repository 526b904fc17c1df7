package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewCreatesLeadlineStructure(t *testing.T) {
	dir := t.TempDir()
	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if cfg.Dir != filepath.Join(dir, LeadlineDir) {
		t.Fatalf("unexpected config dir %q", cfg.Dir)
	}
	for _, sub := range []string{cfg.Dir, filepath.Join(cfg.Dir, "logs")} {
		if info, err := os.Stat(sub); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", sub, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Dir, "config.yaml")); err != nil {
		t.Fatalf("first run should write a default config: %v", err)
	}
	if cfg.APIURL() != "http://localhost:8001/api" {
		t.Fatalf("unexpected default api url %q", cfg.APIURL())
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Fatalf("unexpected default timeout %v", cfg.RequestTimeout())
	}
}

func TestNewReadsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, LeadlineDir)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	custom := "version: 1\napi_url: http://pipeline.internal:9000/api/\nrequest_timeout_seconds: 5\n"
	if err := os.WriteFile(filepath.Join(sub, "config.yaml"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.APIURL() != "http://pipeline.internal:9000/api" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.APIURL())
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout())
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("LEADLINE_API_URL", "http://override:7000/api")
	t.Setenv("LEADLINE_TIMEOUT_SECONDS", "12")

	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.APIURL() != "http://override:7000/api" {
		t.Fatalf("env url override lost, got %q", cfg.APIURL())
	}
	if cfg.RequestTimeout() != 12*time.Second {
		t.Fatalf("env timeout override lost, got %v", cfg.RequestTimeout())
	}
}

func TestBadTimeoutOverrideIgnored(t *testing.T) {
	t.Setenv("LEADLINE_TIMEOUT_SECONDS", "zero")

	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Fatalf("malformed override should keep the default, got %v", cfg.RequestTimeout())
	}
}
