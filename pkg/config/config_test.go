package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("missing file should be skipped: %v", err)
	}
	if cfg.MaxScriptBytes != DefaultMaxScriptBytes {
		t.Fatalf("max bytes wrong. got=%d", cfg.MaxScriptBytes)
	}
	if cfg.TokenTTL != DefaultTokenTTL {
		t.Fatalf("ttl wrong. got=%s", cfg.TokenTTL)
	}
	if cfg.AuthEnabled() {
		t.Fatal("auth should be off without AUTH_SECRET")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeEnv(t, `
MAX_SCRIPT_BYTES=1024
LEGACY_GUARD=true
AUTH_SECRET=s3cret
AUTH_USER=ada
AUTH_PASSWORD_HASH='$2a$10$abcdefghijklmnopqrstuv'
AUTH_TOKEN_TTL=15m
SMTP_HOST=smtp.example.com
SMTP_PORT=2525
SMTP_USER=bot@example.com
REPORT_TO=ops@example.com
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MaxScriptBytes != 1024 {
		t.Fatalf("max bytes wrong. got=%d", cfg.MaxScriptBytes)
	}
	if !cfg.LegacyGuard {
		t.Fatal("legacy guard not read")
	}
	if !cfg.AuthEnabled() || cfg.AuthUser != "ada" {
		t.Fatalf("auth wrong. got=%+v", cfg)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Fatalf("ttl wrong. got=%s", cfg.TokenTTL)
	}
	if cfg.SMTP.Port != 2525 || !cfg.SMTP.Enabled() {
		t.Fatalf("smtp wrong. got=%+v", cfg.SMTP)
	}
	if cfg.SMTP.From != "bot@example.com" {
		t.Fatalf("from should default to SMTP_USER. got=%q", cfg.SMTP.From)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []string{
		"MAX_SCRIPT_BYTES=lots\n",
		"MAX_SCRIPT_BYTES=0\n",
		"AUTH_TOKEN_TTL=forever\n",
		"AUTH_SECRET=s3cret\n",
		"SMTP_PORT=smtp\n",
		"LEGACY_GUARD=maybe\n",
	}
	for i, content := range tests {
		if _, err := Load(writeEnv(t, content)); err == nil {
			t.Fatalf("tests[%d] - expected error for %q", i, content)
		}
	}
}

func TestLoadErrorsFromEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"MAX_SCRIPT_BYTES", "lots"},
		{"SMTP_PORT", "smtp"},
		{"LEGACY_GUARD", "maybe"},
	}
	missing := filepath.Join(t.TempDir(), "missing.env")
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.name, tt.value)
			if _, err := Load(missing); err == nil {
				t.Fatalf("tests[%d] - expected error for %s=%q", i, tt.name, tt.value)
			}
		})
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeEnv(t, "MAX_SCRIPT_BYTES=1024\nLEGACY_GUARD=false\n")
	t.Setenv("MAX_SCRIPT_BYTES", "2048")
	t.Setenv("LEGACY_GUARD", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MaxScriptBytes != 2048 || !cfg.LegacyGuard {
		t.Fatalf("environment should win. got max=%d legacy=%v", cfg.MaxScriptBytes, cfg.LegacyGuard)
	}
}
