// Command hiya is the main entry point for the Hiya voice assistant server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/hiyahq/hiya/internal/assistant"
	"github.com/hiyahq/hiya/internal/config"
	"github.com/hiyahq/hiya/internal/health"
	"github.com/hiyahq/hiya/internal/httpapi"
	"github.com/hiyahq/hiya/internal/integration/calendar"
	"github.com/hiyahq/hiya/internal/integration/email"
	"github.com/hiyahq/hiya/internal/integration/pushover"
	"github.com/hiyahq/hiya/internal/intent"
	"github.com/hiyahq/hiya/internal/observe"
	"github.com/hiyahq/hiya/internal/speech"
	"github.com/hiyahq/hiya/internal/store"
	"github.com/hiyahq/hiya/pkg/provider/llm"
	"github.com/hiyahq/hiya/pkg/provider/llm/anyllm"
	"github.com/hiyahq/hiya/pkg/provider/stt"
	sttopenai "github.com/hiyahq/hiya/pkg/provider/stt/openai"
	"github.com/hiyahq/hiya/pkg/provider/tts"
	ttsopenai "github.com/hiyahq/hiya/pkg/provider/tts/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Environment ───────────────────────────────────────────────────────────
	// A local .env is a development convenience; absence is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "hiya: load .env: %v\n", err)
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "hiya: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "hiya: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("hiya starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "hiya",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Database ──────────────────────────────────────────────────────────────
	pool, err := pgxpool.New(ctx, cfg.Database.PostgresDSN)
	if err != nil {
		slog.Error("failed to create database pool", "err", err)
		return 1
	}
	defer pool.Close()

	st := store.NewPostgresStore(pool)
	if err := st.Migrate(ctx); err != nil {
		slog.Error("failed to run schema migration", "err", err)
		return 1
	}

	// ── Speech providers ──────────────────────────────────────────────────────
	speechAdapter, err := buildSpeech(cfg)
	if err != nil {
		slog.Error("failed to build speech providers", "err", err)
		return 1
	}

	// ── Intent classifier ─────────────────────────────────────────────────────
	classifier, err := buildClassifier(cfg)
	if err != nil {
		slog.Error("failed to build intent classifier", "err", err)
		return 1
	}

	// ── Integrations ──────────────────────────────────────────────────────────
	var calOpts []calendar.Option
	if cfg.Integrations.Calendar.CalendarID != "" {
		calOpts = append(calOpts, calendar.WithCalendarID(cfg.Integrations.Calendar.CalendarID))
	}
	calendarClient := calendar.New(cfg.Integrations.Calendar.AccessToken, calOpts...)
	pushClient := pushover.New(cfg.Integrations.Pushover.AppToken, cfg.Integrations.Pushover.UserKey)

	var emailOpts []email.Option
	if cfg.Integrations.SendGrid.SenderName != "" {
		emailOpts = append(emailOpts, email.WithSenderName(cfg.Integrations.SendGrid.SenderName))
	}
	emailClient := email.New(cfg.Integrations.SendGrid.APIKey, cfg.Integrations.SendGrid.Sender, emailOpts...)

	printStartupSummary(cfg, speechAdapter, classifier, calendarClient, pushClient, emailClient)

	// ── HTTP API ──────────────────────────────────────────────────────────────
	healthHandler := health.New(
		health.Database(pool),
		health.Provider("stt", speechAdapter.CanTranscribe),
		health.Provider("tts", speechAdapter.CanSynthesize),
		health.Provider("classifier", classifier.Configured),
	)

	assistantFor := func(userID int64) httpapi.TurnRunner {
		return assistant.New(userID, speechAdapter, classifier, calendarClient, pushClient, emailClient, st,
			assistant.WithMetrics(metrics))
	}

	server := httpapi.NewServer(
		cfg.Server.ListenAddr,
		assistantFor,
		st,
		httpapi.HeaderResolver{DefaultUserID: cfg.Server.DefaultUserID},
		healthHandler,
		metrics,
	)

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildSpeech constructs the speech adapter from config. Missing API keys
// leave the corresponding direction unconfigured rather than failing startup.
func buildSpeech(cfg *config.Config) (*speech.Adapter, error) {
	var sttProvider stt.Provider
	if key := cfg.Providers.STT.APIKey; key != "" {
		var opts []sttopenai.Option
		if cfg.Providers.STT.Model != "" {
			opts = append(opts, sttopenai.WithModel(cfg.Providers.STT.Model))
		}
		if cfg.Providers.STT.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(cfg.Providers.STT.BaseURL))
		}
		if cfg.Providers.STT.Language != "" {
			opts = append(opts, sttopenai.WithLanguage(cfg.Providers.STT.Language))
		}
		p, err := sttopenai.New(key, opts...)
		if err != nil {
			return nil, fmt.Errorf("stt provider: %w", err)
		}
		sttProvider = p
	}

	var ttsProvider tts.Provider
	if key := cfg.Providers.TTS.APIKey; key != "" {
		var opts []ttsopenai.Option
		if cfg.Providers.TTS.Model != "" {
			opts = append(opts, ttsopenai.WithModel(cfg.Providers.TTS.Model))
		}
		p, err := ttsopenai.New(key, opts...)
		if err != nil {
			return nil, fmt.Errorf("tts provider: %w", err)
		}
		ttsProvider = p
	}

	var adapterOpts []speech.Option
	voice := tts.VoiceProfile{ID: cfg.Providers.TTS.Voice, SpeedFactor: cfg.Providers.TTS.SpeedFactor}
	if voice.ID != "" || voice.SpeedFactor != 0 {
		adapterOpts = append(adapterOpts, speech.WithVoice(voice))
	}
	if cfg.Providers.TTS.OutputDir != "" {
		adapterOpts = append(adapterOpts, speech.WithOutputDir(cfg.Providers.TTS.OutputDir))
	}
	return speech.NewAdapter(sttProvider, ttsProvider, adapterOpts...), nil
}

// buildClassifier constructs the intent classifier from config. A missing
// API key for a key-requiring backend leaves classification unconfigured.
func buildClassifier(cfg *config.Config) (*intent.Classifier, error) {
	name := cfg.Providers.Classifier.Name
	if name == "" {
		name = "openai"
	}
	model := cfg.Providers.Classifier.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	var provider llm.Provider
	if cfg.Providers.Classifier.APIKey != "" || name == "ollama" || name == "llamacpp" || name == "llamafile" {
		var opts []anyllmlib.Option
		if cfg.Providers.Classifier.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(cfg.Providers.Classifier.APIKey))
		}
		p, err := anyllm.New(name, model, opts...)
		if err != nil {
			return nil, fmt.Errorf("classifier provider: %w", err)
		}
		provider = p
	}

	var opts []intent.Option
	if cfg.Providers.Classifier.Temperature != 0 {
		opts = append(opts, intent.WithTemperature(cfg.Providers.Classifier.Temperature))
	}
	return intent.NewClassifier(provider, opts...), nil
}

// newLogger builds the default text logger from the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// printStartupSummary logs which pipeline stages and integrations are live.
func printStartupSummary(
	cfg *config.Config,
	sp *speech.Adapter,
	cl *intent.Classifier,
	cal *calendar.Client,
	push *pushover.Client,
	mail *email.Client,
) {
	slog.Info("pipeline configuration",
		"stt", sp.CanTranscribe(),
		"tts", sp.CanSynthesize(),
		"classifier", cl.Configured(),
		"classifier_backend", cfg.Providers.Classifier.Name,
		"calendar", cal.Configured(),
		"pushover", push.Configured(),
		"sendgrid", mail.Configured(),
	)
}
