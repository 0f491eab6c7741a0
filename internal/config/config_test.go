package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Gemini.PrimaryURLs) != 3 || len(cfg.Gemini.SecondaryURLs) != 3 {
		t.Errorf("expected 3 primary and 3 secondary urls, got %d and %d",
			len(cfg.Gemini.PrimaryURLs), len(cfg.Gemini.SecondaryURLs))
	}
	if cfg.Gemini.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Gemini.Timeout)
	}
	if cfg.Analysis.MaxURLWords != 500 {
		t.Errorf("expected max_url_words 500, got %d", cfg.Analysis.MaxURLWords)
	}
	if cfg.Extraction.MaxFileBytes != 10<<20 {
		t.Errorf("expected 10 MiB upload limit, got %d", cfg.Extraction.MaxFileBytes)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
gemini:
  primary_urls:
    - https://example.test/primary
  timeout: 5s
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Gemini.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Gemini.Timeout)
	}
	// Unspecified fields keep their defaults.
	if cfg.Gemini.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("expected default api_key_env, got %q", cfg.Gemini.APIKeyEnv)
	}
	if cfg.Analysis.MinTextLength != 50 {
		t.Errorf("expected default min_text_length, got %d", cfg.Analysis.MinTextLength)
	}

	ep := cfg.Endpoints()
	if len(ep.Primary) != 1 || ep.Primary[0] != "https://example.test/primary" {
		t.Errorf("unexpected primary endpoints %v", ep.Primary)
	}
	if len(ep.Secondary) != 1 || ep.Secondary[0] != cfg.Gemini.DefaultURL {
		t.Errorf("expected secondary to fall back to default url, got %v", ep.Secondary)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := parse([]byte("gemini: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Gemini.PrimaryURLs) == 0 {
		t.Error("expected primary urls to be populated from file")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("gemini:\n  api_key_env: VERITAS_TEST_KEY\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VERITAS_TEST_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("VERITAS_TEST_KEY", "")
	os.Unsetenv("VERITAS_TEST_KEY")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if got := cfg.APIKey(); got != "from-dotenv" {
		t.Errorf("expected key from .env, got %q", got)
	}
	if !cfg.Endpoints().IsConfigured() {
		t.Error("expected endpoints to be configured")
	}
}

func TestEnvironmentWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VERITAS_TEST_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("VERITAS_TEST_KEY", "from-env")

	LoadDotEnv(dir)
	if got := os.Getenv("VERITAS_TEST_KEY"); got != "from-env" {
		t.Errorf("expected environment to win, got %q", got)
	}
}

func TestDerivedOptions(t *testing.T) {
	cfg := Default()

	opts := cfg.AnalyzerOptions()
	if opts.MinTextLength != 50 || opts.MaxTextLength != 10000 || opts.ExtendedOutputTokens != 4096 {
		t.Errorf("unexpected analyzer options %+v", opts)
	}

	ex := cfg.ExtractOptions()
	if ex.MinFileWords != 10 || ex.MaxFileWords != 800 || ex.Timeout != 15*time.Second {
		t.Errorf("unexpected extract options %+v", ex)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
	if cfg.DBPath() != filepath.Join("/custom/path", "veritas.db") {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
}
