package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidClassifierNames lists the LLM backends the classifier can be wired to.
// Used by [Validate] to warn about unrecognised names.
var ValidClassifierNames = []string{
	"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path, applies environment
// fallbacks, and returns a validated [Config]. It is a convenience wrapper
// around [LoadFromReader], [ApplyEnv], and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment fallbacks,
// and validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills empty credential fields from the conventional environment
// variables. The YAML file always wins; the environment only backfills.
func ApplyEnv(cfg *Config) {
	fallback(&cfg.Providers.STT.APIKey, "OPENAI_API_KEY")
	fallback(&cfg.Providers.TTS.APIKey, "OPENAI_API_KEY")
	if cfg.Providers.Classifier.Name == "" || cfg.Providers.Classifier.Name == "openai" {
		fallback(&cfg.Providers.Classifier.APIKey, "OPENAI_API_KEY")
	}
	fallback(&cfg.Integrations.Calendar.AccessToken, "GOOGLE_CALENDAR_ACCESS_TOKEN")
	fallback(&cfg.Integrations.Calendar.CalendarID, "GOOGLE_CALENDAR_ID")
	fallback(&cfg.Integrations.Pushover.AppToken, "PUSHOVER_APP_TOKEN")
	fallback(&cfg.Integrations.Pushover.UserKey, "PUSHOVER_USER_KEY")
	fallback(&cfg.Integrations.SendGrid.APIKey, "SENDGRID_API_KEY")
	fallback(&cfg.Integrations.SendGrid.Sender, "SENDGRID_SENDER")
	fallback(&cfg.Database.PostgresDSN, "DATABASE_URL")
}

func fallback(dst *string, envKey string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.DefaultUserID < 0 {
		errs = append(errs, fmt.Errorf("server.default_user_id %d must not be negative", cfg.Server.DefaultUserID))
	}

	if name := cfg.Providers.Classifier.Name; name != "" && !slices.Contains(ValidClassifierNames, name) {
		slog.Warn("unknown classifier backend name", "name", name, "known", ValidClassifierNames)
	}
	if cfg.Providers.Classifier.Temperature < 0 || cfg.Providers.Classifier.Temperature > 2 {
		errs = append(errs, fmt.Errorf("providers.classifier.temperature %.2f is out of range [0, 2]", cfg.Providers.Classifier.Temperature))
	}
	if sf := cfg.Providers.TTS.SpeedFactor; sf != 0 && (sf < 0.25 || sf > 4.0) {
		errs = append(errs, fmt.Errorf("providers.tts.speed_factor %.2f is out of range [0.25, 4.0]", sf))
	}

	// Availability warnings: each of these leaves the server functional but
	// degraded, so they are not errors.
	if cfg.Providers.STT.APIKey == "" {
		slog.Warn("providers.stt.api_key is empty; transcription will be unavailable")
	}
	if cfg.Providers.TTS.APIKey == "" {
		slog.Warn("providers.tts.api_key is empty; replies will have no audio")
	}
	if cfg.Providers.Classifier.APIKey == "" && requiresAPIKey(cfg.Providers.Classifier.Name) {
		slog.Warn("providers.classifier.api_key is empty; all utterances will classify as unknown")
	}

	if cfg.Database.PostgresDSN == "" {
		errs = append(errs, errors.New("database.postgres_dsn is required"))
	}

	return errors.Join(errs...)
}

// requiresAPIKey reports whether the named classifier backend needs an API
// key. Local backends authenticate by endpoint, not key.
func requiresAPIKey(name string) bool {
	switch name {
	case "ollama", "llamacpp", "llamafile":
		return false
	}
	return true
}
