// Package httpapi exposes the player, playlists, preferences and session over
// HTTP and streams bus events to websocket clients.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
	"github.com/echoverse/echoverse/internal/service"
)

// RateLister exposes the current rate table.
type RateLister interface {
	Entries() map[string]domain.RateEntry
}

// Deps are the services the API drives.
type Deps struct {
	Playback  *service.PlaybackService
	Playlists *service.PlaylistService
	Prefs     *service.PreferenceService
	Session   *service.SessionService
	Library   *service.LibraryService
	Rates     RateLister
	Bus       ports.EventBus
}

// Options configures the server.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration

	// AllowedOrigins lists the CORS and websocket origins; empty allows any.
	AllowedOrigins []string

	// Version is reported by /healthz.
	Version string
}

// Server is the HTTP shell around the services.
type Server struct {
	logger   *slog.Logger
	deps     Deps
	opts     Options
	router   *mux.Router
	handler  http.Handler
	upgrader websocket.Upgrader

	// done is closed on shutdown so event streams exit.
	done      chan struct{}
	closeOnce sync.Once
	streams   sync.WaitGroup
}

// New creates a server and registers its routes.
func New(logger *slog.Logger, deps Deps, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		logger: logger.With(slog.String("component", "httpapi")),
		deps:   deps,
		opts:   opts,
		router: mux.NewRouter(),
		done:   make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.originAllowed,
	}
	s.routes()
	// CORS wraps the router so preflight requests, which match no route, are answered.
	s.handler = s.logRequests(s.cors(s.router))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() {
	r := s.router

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public endpoints
	api.HandleFunc("/session/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/catalog", s.handleCatalog).Methods(http.MethodGet)
	api.HandleFunc("/catalog/search", s.handleSearch).Methods(http.MethodGet)

	// Session-bound endpoints
	p := api.NewRoute().Subrouter()
	p.Use(s.requireSessionToken)

	p.HandleFunc("/player", s.handleState).Methods(http.MethodGet)
	p.HandleFunc("/player/queue", s.handleGetQueue).Methods(http.MethodGet)
	p.HandleFunc("/player/queue", s.handleLoadQueue).Methods(http.MethodPost)
	p.HandleFunc("/player/toggle", s.transport(s.deps.Playback.TogglePlayPause)).Methods(http.MethodPost)
	p.HandleFunc("/player/play", s.transport(s.deps.Playback.Play)).Methods(http.MethodPost)
	p.HandleFunc("/player/pause", s.transport(s.deps.Playback.Pause)).Methods(http.MethodPost)
	p.HandleFunc("/player/next", s.transport(s.deps.Playback.Next)).Methods(http.MethodPost)
	p.HandleFunc("/player/previous", s.transport(s.deps.Playback.Previous)).Methods(http.MethodPost)
	p.HandleFunc("/player/seek", s.handleSeek).Methods(http.MethodPost)
	p.HandleFunc("/player/volume", s.handleVolume).Methods(http.MethodPut)
	p.HandleFunc("/player/mute", s.handleMute).Methods(http.MethodPost)
	p.HandleFunc("/player/repeat", s.handleRepeat).Methods(http.MethodPut)

	p.HandleFunc("/accrual", s.handleAccrual).Methods(http.MethodGet)
	p.HandleFunc("/accrual/reset", s.handleResetAccrual).Methods(http.MethodPost)
	p.HandleFunc("/rates", s.handleRates).Methods(http.MethodGet)

	p.HandleFunc("/playlists", s.handleListPlaylists).Methods(http.MethodGet)
	p.HandleFunc("/playlists", s.handleCreatePlaylist).Methods(http.MethodPost)
	p.HandleFunc("/playlists/{id}", s.handleGetPlaylist).Methods(http.MethodGet)
	p.HandleFunc("/playlists/{id}", s.handleUpdatePlaylist).Methods(http.MethodPatch)
	p.HandleFunc("/playlists/{id}", s.handleDeletePlaylist).Methods(http.MethodDelete)
	p.HandleFunc("/playlists/{id}/tracks", s.handleAddTrack).Methods(http.MethodPost)
	p.HandleFunc("/playlists/{id}/tracks/{trackId}", s.handleRemoveTrack).Methods(http.MethodDelete)

	p.HandleFunc("/preferences", s.handlePreferences).Methods(http.MethodGet)
	p.HandleFunc("/preferences", s.handleResetPreferences).Methods(http.MethodDelete)
	p.HandleFunc("/preferences/sidebar", s.handleSetSidebar).Methods(http.MethodPut)
	p.HandleFunc("/preferences/sidebar/toggle", s.handleToggleSidebar).Methods(http.MethodPost)

	p.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	p.HandleFunc("/session/logout", s.handleLogout).Methods(http.MethodPost)
	p.HandleFunc("/session/profile", s.handleProfile).Methods(http.MethodPut)
	p.HandleFunc("/session/wallets", s.handleLinkWallet).Methods(http.MethodPost)
	p.HandleFunc("/session/wallets/{address}", s.handleUnlinkWallet).Methods(http.MethodDelete)

	p.HandleFunc("/library/import", s.handleImport).Methods(http.MethodPost)
	p.HandleFunc("/library/cancel", s.handleCancelImport).Methods(http.MethodPost)
	p.HandleFunc("/library/formats", s.handleFormats).Methods(http.MethodGet)

	p.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
}

// Serve listens on Options.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.Close()
	err := srv.Shutdown(shutdownCtx)
	<-errCh
	s.logger.Info("http server stopped")
	return err
}

// Close ends every event stream and waits for their goroutines.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.streams.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.opts.Version})
}
