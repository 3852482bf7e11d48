package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"ticket_analyzer/pkg/apperr"
)

func setRequired(t *testing.T) {
	t.Setenv("OMNIDESK_BASE_URL", "https://desk.example.com/")
	t.Setenv("OMNIDESK_USERNAME", "bot")
	t.Setenv("OMNIDESK_PASSWORD", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HelpdeskBaseURL != "https://desk.example.com" {
		t.Errorf("base url = %q", cfg.HelpdeskBaseURL)
	}
	if cfg.LLMMaxRetries != 5 {
		t.Errorf("max retries = %d", cfg.LLMMaxRetries)
	}
	if cfg.DirectoryCacheTTL != time.Hour {
		t.Errorf("cache ttl = %v", cfg.DirectoryCacheTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ANALYZER_WORKERS", "3")
	t.Setenv("ANALYZER_BATCH_TIMEOUT", "90s")
	t.Setenv("GOOGLE_SCOPES", "a, b")
	t.Setenv("GOOGLE_PRIVATE_KEY", `line1\nline2`)

	cfg, _ := Load()
	if cfg.Workers != 3 {
		t.Errorf("workers = %d", cfg.Workers)
	}
	if cfg.BatchTimeout != 90*time.Second {
		t.Errorf("timeout = %v", cfg.BatchTimeout)
	}
	if len(cfg.GoogleScopes) != 2 || cfg.GoogleScopes[1] != "b" {
		t.Errorf("scopes = %v", cfg.GoogleScopes)
	}
	if cfg.GooglePrivateKey != "line1\nline2" {
		t.Errorf("private key = %q", cfg.GooglePrivateKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.HelpdeskBaseURL = "" }},
		{"missing password", func(c *Config) { c.HelpdeskPassword = "" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"no retries", func(c *Config) { c.LLMMaxRetries = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			cfg, _ := Load()
			tt.mutate(cfg)
			if err := cfg.Validate(); !apperr.HasCode(err, apperr.CodeConfigError) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestServiceAccountJSON(t *testing.T) {
	cfg := &Config{GoogleClientEmail: "svc@project.iam.gserviceaccount.com", GooglePrivateKey: "key", GoogleTokenURI: "https://token"}
	data, err := cfg.ServiceAccountJSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["type"] != "service_account" || m["client_email"] != cfg.GoogleClientEmail {
		t.Errorf("unexpected credentials: %v", m)
	}

	if _, err := (&Config{}).ServiceAccountJSON(); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestLoadRubric(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "rubric.yaml")
	if err := os.WriteFile(good, []byte("rubric: |\n  Rate the dialogue.\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("other: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	rubric, err := LoadRubric(good)
	if err != nil || rubric != "Rate the dialogue." {
		t.Errorf("rubric = %q, err = %v", rubric, err)
	}
	if r, err := LoadRubric(""); err != nil || r != "" {
		t.Errorf("empty path: %q, %v", r, err)
	}
	if _, err := LoadRubric(empty); err == nil {
		t.Error("expected error for rubric file without rubric")
	}
	if _, err := LoadRubric(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
