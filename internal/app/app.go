// Package app wires the service's components together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-browser-assistant-service/internal/accounts"
	"ai-browser-assistant-service/internal/agent"
	"ai-browser-assistant-service/internal/config"
	"ai-browser-assistant-service/internal/events"
	"ai-browser-assistant-service/internal/observability/logging"
	"ai-browser-assistant-service/internal/quota"
	"ai-browser-assistant-service/internal/storage"
	"ai-browser-assistant-service/internal/storage/redis"
	"ai-browser-assistant-service/internal/storage/sqlite"
	"ai-browser-assistant-service/internal/voice"
	"ai-browser-assistant-service/internal/voice/transcribe"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Store     storage.Store
	Accounts  accounts.Store
	Tracker   *quota.Tracker
	Voice     *voice.Service
	VoiceIn   *voice.PushSource
	Agent     *agent.Session
	Publisher *events.Publisher
}

// New constructs a new Application from the provided configuration.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})
	logger := logging.Logger().With().
		Str("service", cfg.Service.Principal).
		Logger()

	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage backend %q: %w", cfg.Storage.Backend, err)
	}

	accountStore, err := newAccounts(cfg.Accounts)
	if err != nil {
		store.Close()
		return nil, err
	}

	tracker := quota.NewTracker(store.Usage(), quota.Config{
		FreeTierLimit: cfg.Quota.FreeTierLimit,
		Window:        cfg.Quota.Window,
	}, logger)

	encoding := voice.EncodingOptions{
		SampleRateHz: cfg.Voice.SampleRateHz,
		Channels:     cfg.Voice.Channels,
		BitRate:      cfg.Voice.BitRate,
	}
	transcriber, err := transcribe.New(ctx, cfg.Transcribe, encoding)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build transcription provider: %w", err)
	}

	// Audio reaches the server over the API, so capture runs on the stream
	// backend fed by uploaded chunks. The device backend is for embedding
	// this module where recording hardware is local.
	switch cfg.Voice.Backend {
	case "auto", "stream":
	default:
		store.Close()
		return nil, fmt.Errorf("voice backend %q requires local recording hardware", cfg.Voice.Backend)
	}
	source := voice.NewPushSource()
	recorder := voice.DetectRecorder(nil, source, cfg.Voice.DeviceDir, encoding)
	voiceSvc := voice.NewService(recorder, transcriber, cfg.Transcribe.Provider, logger)

	session := agent.NewSession(cfg.Agent.Endpoint, cfg.Agent.Timeout, logger)
	publisher := events.New(&cfg.Kafka)

	a := &Application{
		Logger:    logger.With().Str("component", "application").Logger(),
		Cfg:       cfg,
		Store:     store,
		Accounts:  accountStore,
		Tracker:   tracker,
		Voice:     voiceSvc,
		VoiceIn:   source,
		Agent:     session,
		Publisher: publisher,
	}
	a.Logger.Info().
		Str("storage", cfg.Storage.Backend).
		Str("transcribeProvider", cfg.Transcribe.Provider).
		Str("accountsMode", cfg.Accounts.Mode).
		Msg("Application created")
	return a, nil
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "redis":
		return redis.Open(cfg.Redis)
	case "sqlite":
		return sqlite.Open(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

func newAccounts(cfg config.AccountsConfig) (accounts.Store, error) {
	switch cfg.Mode {
	case "remote":
		return accounts.NewRemoteStore(cfg.Endpoint, 10*time.Second), nil
	case "local":
		store := accounts.NewLocalStore()
		// Dev convenience account; local mode is not for production.
		if _, err := store.Register("demo@example.com", "demo-password", false); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown accounts mode: %q", cfg.Mode)
	}
}

// Start performs startup work before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("AI browser assistant service starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("AI browser assistant service shutting down")

	if err := a.Publisher.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Error closing event publisher")
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Error closing storage")
	}
}
