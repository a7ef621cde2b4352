package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "chartvoice.toml"))
	if err == nil {
		t.Fatal("explicitly requested missing config should fail")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Site.Port != 8000 || cfg.Site.Dir != "html" {
		t.Fatalf("site defaults=%+v", cfg.Site)
	}
	if cfg.Extract.MaxAttempts != 5 || cfg.Extract.BaseDelay != 2*time.Second {
		t.Fatalf("extract defaults=%+v", cfg.Extract)
	}
	if cfg.Capture.PracticeControl != "practice-select" || cfg.Capture.CountyControl != "fips-select" {
		t.Fatalf("capture defaults=%+v", cfg.Capture)
	}
	if !cfg.Browser.Headless {
		t.Fatal("browser should default to headless")
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chartvoice.toml")
	body := `
[site]
port = 9100
dir = "public"

[extract]
model = "gpt-4o"
max_attempts = 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Site.Port != 9100 || cfg.Site.Dir != "public" {
		t.Fatalf("site=%+v, want file values", cfg.Site)
	}
	if cfg.Extract.Model != "gpt-4o" || cfg.Extract.MaxAttempts != 3 {
		t.Fatalf("extract=%+v, want file values", cfg.Extract)
	}
	// untouched sections keep defaults
	if cfg.Flatten.OutputPath != "ai_insights_output.csv" {
		t.Fatalf("flatten=%+v, want defaults", cfg.Flatten)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chartvoice.toml")
	if err := os.WriteFile(path, []byte("[site]\nport = 9100\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CHARTVOICE_PORT", "9200")
	t.Setenv("CHARTVOICE_BASE_DELAY", "500ms")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Site.Port != 9200 {
		t.Fatalf("port=%d, env should beat file", cfg.Site.Port)
	}
	if cfg.Extract.BaseDelay != 500*time.Millisecond {
		t.Fatalf("baseDelay=%v, want 500ms", cfg.Extract.BaseDelay)
	}
	if cfg.Extract.APIKey != "sk-test" {
		t.Fatalf("apiKey=%q, want env value", cfg.Extract.APIKey)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chartvoice.toml")
	if err := os.WriteFile(path, []byte("[site\nport ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed TOML should fail")
	}
}

func TestEnvHelpers_IgnoreMalformedValues(t *testing.T) {
	t.Setenv("CHARTVOICE_MAX_ATTEMPTS", "many")
	t.Setenv("CHARTVOICE_HEADLESS", "sideways")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extract.MaxAttempts != 5 {
		t.Fatalf("maxAttempts=%d, malformed env should fall back", cfg.Extract.MaxAttempts)
	}
	if !cfg.Browser.Headless {
		t.Fatal("malformed bool env should fall back to default")
	}
}
