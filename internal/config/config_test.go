package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"phishgate/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := config.Default()

	if cfg.Server.Addr != ":8844" {
		t.Errorf("Addr = %q, want :8844", cfg.Server.Addr)
	}
	if cfg.Backend.URL != "http://localhost:5000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if !cfg.Browser.Headless {
		t.Error("expected headless by default")
	}
	if got := cfg.VerdictTTL(); got != 30*time.Second {
		t.Errorf("VerdictTTL = %v, want 30s", got)
	}
	if got := cfg.AllowTTL(); got != 5*time.Minute {
		t.Errorf("AllowTTL = %v, want 5m", got)
	}
	if got := cfg.BackendTimeout(); got != 10*time.Second {
		t.Errorf("BackendTimeout = %v, want 10s", got)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
backend:
  url: "http://10.0.0.5:5000"
  timeout: "3s"
cache:
  verdictTtl: "1m"
browser:
  attach: true
  headless: false
  remoteUrl: "ws://127.0.0.1:9222"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Backend.URL != "http://10.0.0.5:5000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if got := cfg.BackendTimeout(); got != 3*time.Second {
		t.Errorf("BackendTimeout = %v, want 3s", got)
	}
	if got := cfg.VerdictTTL(); got != time.Minute {
		t.Errorf("VerdictTTL = %v, want 1m", got)
	}
	// untouched fields keep their defaults
	if got := cfg.AllowTTL(); got != 5*time.Minute {
		t.Errorf("AllowTTL = %v, want default 5m", got)
	}
	if !cfg.Browser.Attach || cfg.Browser.Headless {
		t.Errorf("Browser = %+v", cfg.Browser)
	}
	if cfg.Browser.RemoteURL != "ws://127.0.0.1:9222" {
		t.Errorf("RemoteURL = %q", cfg.Browser.RemoteURL)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "backend:\n  timeout: \"soon\"\n")

	if _, err := config.Load(path); err == nil {
		t.Error("expected an error for an unparseable duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
