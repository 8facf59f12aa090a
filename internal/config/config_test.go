package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vidsub.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("VIDSUB_TEST_BACKEND", "http://media.local:9000")
	path := writeConfig(t, `
backend:
  url: ${VIDSUB_TEST_BACKEND}
  timeout: 5s
languages:
  primary: en
translate:
  provider: openai
  batch_size: 20
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.URL != "http://media.local:9000" {
		t.Errorf("backend url: got %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("backend timeout: got %v", cfg.Backend.Timeout)
	}
	if cfg.Languages.Primary != "en" {
		t.Errorf("primary language: got %q", cfg.Languages.Primary)
	}
	// untouched fields keep defaults
	if cfg.Languages.Translation != "en" {
		t.Errorf("translation language: got %q", cfg.Languages.Translation)
	}
	if cfg.Translate.Provider != "openai" || cfg.Translate.BatchSize != 20 {
		t.Errorf("translate: got %+v", cfg.Translate)
	}
	if cfg.Translate.Concurrency != 3 {
		t.Errorf("concurrency default lost: got %d", cfg.Translate.Concurrency)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad provider", "translate:\n  provider: bard\n", "translate.provider"},
		{"zero batch", "translate:\n  batch_size: -1\n", "batch_size"},
		{"empty url", "backend:\n  url: \"\"\n", "backend.url"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"bad yaml", "backend: [\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	_, err := FindConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadOrDefaultExplicit(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	cfg, used, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if used != path {
		t.Errorf("used path: got %q, want %q", used, path)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Address: "127.0.0.1", Port: 8089}
	if s.Addr() != "127.0.0.1:8089" {
		t.Errorf("Addr() = %q", s.Addr())
	}
}
