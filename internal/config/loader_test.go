package config

import (
	"strings"
	"testing"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
  default_user_id: 1
providers:
  stt:
    api_key: sk-stt
  tts:
    api_key: sk-tts
    voice: nova
  classifier:
    name: openai
    api_key: sk-llm
    model: gpt-4o-mini
integrations:
  calendar:
    access_token: ya29.token
  pushover:
    app_token: apptoken
    user_key: userkey
  sendgrid:
    api_key: SG.key
    sender: hiya@example.com
database:
  postgres_dsn: postgres://localhost/hiya
`

func TestLoadFromReader(t *testing.T) {
	// Neutralize ambient credentials so fallback behaviour is deterministic.
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")

	t.Run("valid config", func(t *testing.T) {
		cfg, err := LoadFromReader(strings.NewReader(validYAML))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.ListenAddr != ":8080" {
			t.Errorf("listen_addr: %q", cfg.Server.ListenAddr)
		}
		if cfg.Providers.TTS.Voice != "nova" {
			t.Errorf("tts voice: %q", cfg.Providers.TTS.Voice)
		}
		if cfg.Integrations.SendGrid.Sender != "hiya@example.com" {
			t.Errorf("sendgrid sender: %q", cfg.Integrations.SendGrid.Sender)
		}
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := LoadFromReader(strings.NewReader(`
database:
  postgres_dsn: postgres://localhost/hiya
  max_connections: 10
`))
		if err == nil {
			t.Fatal("want decode error for unknown field")
		}
	})

	t.Run("missing dsn is an error", func(t *testing.T) {
		_, err := LoadFromReader(strings.NewReader(`
server:
  listen_addr: ":8080"
`))
		if err == nil || !strings.Contains(err.Error(), "database.postgres_dsn is required") {
			t.Fatalf("want dsn error, got %v", err)
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		_, err := LoadFromReader(strings.NewReader(`
server:
  log_level: loud
database:
  postgres_dsn: postgres://localhost/hiya
`))
		if err == nil || !strings.Contains(err.Error(), "log_level") {
			t.Fatalf("want log level error, got %v", err)
		}
	})

	t.Run("speed factor range", func(t *testing.T) {
		_, err := LoadFromReader(strings.NewReader(`
providers:
  tts:
    speed_factor: 9.5
database:
  postgres_dsn: postgres://localhost/hiya
`))
		if err == nil || !strings.Contains(err.Error(), "speed_factor") {
			t.Fatalf("want speed factor error, got %v", err)
		}
	})

	t.Run("multiple failures are joined", func(t *testing.T) {
		_, err := LoadFromReader(strings.NewReader(`
server:
  log_level: loud
  default_user_id: -2
`))
		if err == nil {
			t.Fatal("want joined errors")
		}
		for _, want := range []string{"log_level", "default_user_id", "postgres_dsn"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("joined error missing %q: %v", want, err)
			}
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PUSHOVER_APP_TOKEN", "env-app")
	t.Setenv("PUSHOVER_USER_KEY", "env-user")
	t.Setenv("SENDGRID_API_KEY", "SG.env")
	t.Setenv("SENDGRID_SENDER", "env@example.com")
	t.Setenv("GOOGLE_CALENDAR_ACCESS_TOKEN", "ya29.env")
	t.Setenv("GOOGLE_CALENDAR_ID", "work")
	t.Setenv("DATABASE_URL", "postgres://env/hiya")

	t.Run("backfills empty fields", func(t *testing.T) {
		cfg := &Config{}
		ApplyEnv(cfg)

		if cfg.Providers.STT.APIKey != "sk-env" || cfg.Providers.TTS.APIKey != "sk-env" {
			t.Errorf("speech keys not backfilled: %+v", cfg.Providers)
		}
		if cfg.Providers.Classifier.APIKey != "sk-env" {
			t.Errorf("classifier key not backfilled: %q", cfg.Providers.Classifier.APIKey)
		}
		if cfg.Integrations.Pushover.AppToken != "env-app" || cfg.Integrations.Pushover.UserKey != "env-user" {
			t.Errorf("pushover not backfilled: %+v", cfg.Integrations.Pushover)
		}
		if cfg.Integrations.Calendar.AccessToken != "ya29.env" || cfg.Integrations.Calendar.CalendarID != "work" {
			t.Errorf("calendar not backfilled: %+v", cfg.Integrations.Calendar)
		}
		if cfg.Database.PostgresDSN != "postgres://env/hiya" {
			t.Errorf("dsn not backfilled: %q", cfg.Database.PostgresDSN)
		}
	})

	t.Run("yaml value wins over environment", func(t *testing.T) {
		cfg := &Config{}
		cfg.Database.PostgresDSN = "postgres://file/hiya"
		ApplyEnv(cfg)
		if cfg.Database.PostgresDSN != "postgres://file/hiya" {
			t.Errorf("env overrode explicit value: %q", cfg.Database.PostgresDSN)
		}
	})

	t.Run("non-openai classifier keeps its own key", func(t *testing.T) {
		cfg := &Config{}
		cfg.Providers.Classifier.Name = "anthropic"
		ApplyEnv(cfg)
		if cfg.Providers.Classifier.APIKey != "" {
			t.Errorf("anthropic classifier took the OpenAI key: %q", cfg.Providers.Classifier.APIKey)
		}
	})
}
