package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
}

func TestLoad(t *testing.T) {
	// Keep ambient environment out of the way.
	for _, key := range []string{"YOUTUBE_API_KEY", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GEMINI_API_KEY", "EMAIL_USERNAME", "EMAIL_PASSWORD"} {
		t.Setenv(key, "")
	}

	t.Run("FullConfig", func(t *testing.T) {
		writeConfig(t, `
server:
  port: 9090
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gm-key
  model: gemini-2.5-pro
retention:
  scan_history_days: 30
`)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Server.Port != 9090 {
			t.Errorf("port = %d, want 9090", cfg.Server.Port)
		}
		if cfg.AI.Model != "gemini-2.5-pro" {
			t.Errorf("model = %q, want gemini-2.5-pro", cfg.AI.Model)
		}
		if cfg.Retention.ScanHistoryDays != 30 {
			t.Errorf("scan_history_days = %d, want 30", cfg.Retention.ScanHistoryDays)
		}
	})

	t.Run("DefaultsApplied", func(t *testing.T) {
		writeConfig(t, `
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gm-key
`)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("default port = %d, want 8080", cfg.Server.Port)
		}
		if cfg.Database.Dir != "data" {
			t.Errorf("default database dir = %q, want data", cfg.Database.Dir)
		}
		if cfg.AI.Model != "gemini-2.5-flash" {
			t.Errorf("default model = %q, want gemini-2.5-flash", cfg.AI.Model)
		}
		if cfg.YouTube.TokenFile != "youtube_token.json" {
			t.Errorf("default token file = %q", cfg.YouTube.TokenFile)
		}
	})

	t.Run("EnvFallback", func(t *testing.T) {
		writeConfig(t, `
ai:
  model: gemini-2.5-flash
`)
		t.Setenv("GEMINI_API_KEY", "env-gm-key")
		t.Setenv("YOUTUBE_API_KEY", "env-yt-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.AI.GeminiAPIKey != "env-gm-key" {
			t.Errorf("gemini key = %q, want env-gm-key", cfg.AI.GeminiAPIKey)
		}
		if cfg.YouTube.APIKey != "env-yt-key" {
			t.Errorf("youtube key = %q, want env-yt-key", cfg.YouTube.APIKey)
		}
	})

	t.Run("MissingGeminiKey", func(t *testing.T) {
		writeConfig(t, `
youtube:
  api_key: yt-key
`)
		if _, err := Load(); err == nil {
			t.Fatal("expected validation error for missing Gemini key")
		}
	})

	t.Run("MissingYouTubeCredentials", func(t *testing.T) {
		writeConfig(t, `
ai:
  gemini_api_key: gm-key
youtube:
  client_id: only-id
`)
		if _, err := Load(); err == nil {
			t.Fatal("expected validation error for incomplete YouTube credentials")
		}
	})

	t.Run("DigestRequiresSMTP", func(t *testing.T) {
		writeConfig(t, `
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gm-key
digest:
  enabled: true
`)
		if _, err := Load(); err == nil {
			t.Fatal("expected validation error for digest without SMTP settings")
		}
	})
}
