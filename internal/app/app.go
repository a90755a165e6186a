// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/echoverse/echoverse/internal/adapter/auth"
	"github.com/echoverse/echoverse/internal/adapter/eventbus"
	"github.com/echoverse/echoverse/internal/adapter/httpapi"
	"github.com/echoverse/echoverse/internal/adapter/kv/memory"
	"github.com/echoverse/echoverse/internal/adapter/kv/redis"
	"github.com/echoverse/echoverse/internal/adapter/kv/sqlite"
	"github.com/echoverse/echoverse/internal/adapter/media/mock"
	"github.com/echoverse/echoverse/internal/adapter/notify"
	"github.com/echoverse/echoverse/internal/adapter/ratetable"
	repokv "github.com/echoverse/echoverse/internal/adapter/repository/kv"
	"github.com/echoverse/echoverse/internal/adapter/resolver"
	"github.com/echoverse/echoverse/internal/adapter/resolver/ipfs"
	"github.com/echoverse/echoverse/internal/adapter/resolver/s3"
	"github.com/echoverse/echoverse/internal/config"
	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
	"github.com/echoverse/echoverse/internal/ports"
	"github.com/echoverse/echoverse/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for the CLI
type Application struct {
	// Core dependencies
	logger    *slog.Logger
	logCloser io.Closer
	config    *config.Config

	// Infrastructure
	eventBus    ports.EventBus
	mediaEngine ports.MediaEngine
	store       ports.KeyValueStore
	rates       *ratetable.Table
	rateWatcher *ratetable.Watcher
	content     *ipfs.Service
	objects     *s3.Resolver
	resolver    *resolver.Router
	notifier    ports.Notifier

	// Services
	playbackService   *service.PlaybackService
	playlistService   *service.PlaylistService
	preferenceService *service.PreferenceService
	sessionService    *service.SessionService
	libraryService    *service.LibraryService

	// HTTP shell
	server *httpapi.Server

	shutdownOnce sync.Once
}

// Services groups the application services.
type Services struct {
	Playback   *service.PlaybackService
	Playlists  *service.PlaylistService
	Preference *service.PreferenceService
	Session    *service.SessionService
	Library    *service.LibraryService
}

// Option customizes the wiring, mainly for tests.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	mediaEngine ports.MediaEngine
	newTicker   ports.TickerFactory
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMediaEngine replaces the realtime simulated media engine.
func WithMediaEngine(e ports.MediaEngine) Option {
	return func(o *options) { o.mediaEngine = e }
}

// WithTickerFactory replaces the wall-clock accrual ticker.
func WithTickerFactory(f ports.TickerFactory) Option {
	return func(o *options) { o.newTicker = f }
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	o := options{newTicker: service.NewSystemTicker}
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{config: cfg}

	// Step 1: Create logger
	if o.logger != nil {
		app.logger = o.logger
	} else {
		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		app.logger, app.logCloser = logger.NewLogger(logger.Config{
			Level:      level,
			Format:     cfg.Log.Format,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		})
	}
	app.logger.Info("initializing application", slog.String("version", GetVersionInfo().Release()))

	// A failed step releases whatever was already built.
	ok := false
	defer func() {
		if !ok {
			app.Shutdown()
		}
	}()

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 3: Create notification sinks
	app.notifier = notify.Fanout{
		notify.NewBus(app.eventBus, app.logger),
		notify.NewLog(app.logger),
	}

	// Step 4: Open the key-value store behind the repositories
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	app.store = store
	app.logger.Info("storage ready", slog.String("backend", cfg.Storage.Backend))

	// Step 5: Create the rate table
	if err := app.initRates(ctx); err != nil {
		return nil, err
	}

	// Step 6: Create content resolvers
	app.content = ipfs.New(app.logger, ipfs.Options{
		ConnectDelay: cfg.IPFS.ConnectDelay,
		FetchDelay:   cfg.IPFS.FetchDelay,
		UploadDelay:  cfg.IPFS.UploadDelay,
		PinDelay:     cfg.IPFS.PinDelay,
		GatewayURL:   cfg.IPFS.GatewayURL,
	})
	app.resolver = resolver.NewRouter(app.logger)
	app.resolver.Handle(ipfs.Scheme, app.content)

	var contentStore ports.ContentStore = app.content
	if cfg.S3.Enabled() {
		objects, err := s3.New(app.logger, s3.Config{
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Region:        cfg.S3.Region,
			Bucket:        cfg.S3.Bucket,
			UseSSL:        cfg.S3.UseSSL,
			Expiry:        cfg.S3.Expiry,
			VerifyObjects: cfg.S3.VerifyObjects,
		})
		if err != nil {
			return nil, err
		}
		app.objects = objects
		app.resolver.Handle(s3.Scheme, objects)
		contentStore = objects
	}

	// Step 7: Create a media engine
	if o.mediaEngine != nil {
		app.mediaEngine = o.mediaEngine
	} else {
		length := cfg.Player.TrackLength
		app.mediaEngine = mock.NewEngine(app.logger,
			mock.WithRealtime(cfg.Player.BufferDelay, cfg.Player.ProgressInterval,
				func(string) time.Duration { return length }))
	}

	// Step 8: Create the auth provider (variant chosen once, here)
	provider, err := auth.New(app.logger, auth.Config{
		Provider: cfg.Auth.Provider,
		Token: auth.TokenConfig{
			Secret: cfg.Auth.Secret,
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.TokenTTL,
		},
	})
	if err != nil {
		return nil, err
	}

	// Step 9: Create services (with dependency injection)
	repeat, err := domain.ParseRepeatMode(cfg.Player.Repeat)
	if err != nil {
		return nil, err
	}
	meter := service.NewAccrualMeter(app.logger, app.eventBus, o.newTicker)
	app.playbackService = service.NewPlaybackService(
		app.logger,
		app.mediaEngine,
		app.resolver,
		app.rates,
		app.notifier,
		app.eventBus,
		meter,
		service.PlaybackConfig{
			ResolveTimeout:   cfg.Player.ResolveTimeout,
			ProgressInterval: cfg.Player.ProgressInterval,
			Volume:           cfg.Player.Volume,
			Repeat:           repeat,
		},
	)

	app.playlistService = service.NewPlaylistService(
		app.logger,
		repokv.NewPlaylistRepository(app.store, app.logger),
		app.eventBus,
	)

	app.preferenceService = service.NewPreferenceService(
		app.logger,
		repokv.NewPreferencesRepository(app.store),
		app.eventBus,
	)

	app.libraryService = service.NewLibraryService(app.logger, contentStore, app.eventBus)

	app.sessionService = service.NewSessionService(
		app.logger,
		provider,
		app.eventBus,
		app.playlistService.OpenSession,
		app.openPreferences,
	)

	// Step 10: Load the guest session state
	app.playlistService.OpenSession(ctx, nil)
	app.openPreferences(ctx, nil)

	// Step 11: Create the HTTP shell
	app.server = httpapi.New(app.logger, httpapi.Deps{
		Playback:  app.playbackService,
		Playlists: app.playlistService,
		Prefs:     app.preferenceService,
		Session:   app.sessionService,
		Library:   app.libraryService,
		Rates:     app.rates,
		Bus:       app.eventBus,
	}, httpapi.Options{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Version:         GetVersionInfo().Release(),
	})

	ok = true
	app.logger.Info("all services initialized successfully")
	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config) (ports.KeyValueStore, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(ctx, cfg.SQLite.Path)
	case "redis":
		return redis.Open(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// initRates loads the builtin tiers, then the rate file if one is configured.
func (a *Application) initRates(ctx context.Context) error {
	a.rates = ratetable.New(ratetable.Builtin())

	path := a.config.Rates.File
	if path == "" {
		return nil
	}
	if !a.config.Rates.Watch {
		entries, err := ratetable.LoadFile(path)
		if err != nil {
			return err
		}
		a.rates.Replace(entries)
		a.logger.Info("rate table loaded", slog.String("path", path), slog.Int("entries", len(entries)))
		return nil
	}

	watcher, err := ratetable.Watch(ctx, a.logger, a.rates, path,
		ratetable.OnReload(func(entries int) {
			a.notifier.Notify(domain.NotifyInfo, fmt.Sprintf("rate table reloaded (%d tracks)", entries))
		}))
	if err != nil {
		return err
	}
	a.rateWatcher = watcher
	a.logger.Info("watching rate table", slog.String("path", path))
	return nil
}

// openPreferences switches the preference record and applies it to the player.
func (a *Application) openPreferences(ctx context.Context, user *domain.User) {
	prefs := a.preferenceService.OpenSession(ctx, user)

	if err := a.playbackService.SetVolume(prefs.Volume); err != nil {
		a.logger.Warn("failed to set volume", slog.Any("error", err))
	}
	a.playbackService.SetMuted(prefs.Muted)
	if prefs.Repeat == "" {
		return
	}
	if mode, err := domain.ParseRepeatMode(prefs.Repeat); err == nil {
		a.playbackService.SetRepeat(mode)
	}
}

// Run serves the HTTP shell until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("Echoverse started", slog.String("addr", a.config.Server.Addr))
	return a.server.Serve(ctx)
}

// Services returns the application services.
func (a *Application) Services() Services {
	return Services{
		Playback:   a.playbackService,
		Playlists:  a.playlistService,
		Preference: a.preferenceService,
		Session:    a.sessionService,
		Library:    a.libraryService,
	}
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// Rates returns the live rate table.
func (a *Application) Rates() *ratetable.Table { return a.rates }

// Handler returns the HTTP shell handler.
func (a *Application) Handler() *httpapi.Server { return a.server }

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Shutdown gracefully shuts down the application. It is safe to call more than once.
func (a *Application) Shutdown() error {
	var errs []error
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		if a.server != nil {
			a.server.Close()
		}

		// Shutdown services (in reverse order of creation)
		if a.libraryService != nil {
			if err := a.libraryService.Shutdown(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.preferenceService != nil {
			if err := a.preferenceService.Shutdown(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.playbackService != nil {
			if err := a.playbackService.Shutdown(); err != nil {
				errs = append(errs, err)
			}
		}

		// Shutdown infrastructure
		if a.mediaEngine != nil {
			if err := a.mediaEngine.Shutdown(); err != nil {
				errs = append(errs, fmt.Errorf("media engine: %w", err))
			}
		}
		if a.rateWatcher != nil {
			if err := a.rateWatcher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("rate watcher: %w", err))
			}
		}
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("store: %w", err))
			}
		}
		if a.eventBus != nil {
			if err := a.eventBus.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		for _, err := range errs {
			a.logger.Warn("shutdown step failed", slog.Any("error", err))
		}
		a.logger.Info("application shutdown complete")
		if a.logCloser != nil {
			_ = a.logCloser.Close()
		}
	})
	return errors.Join(errs...)
}
