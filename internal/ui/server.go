// Package ui provides the web chat interface for QueryChat.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/querychat/internal/provider"
	"github.com/leapstack-labs/querychat/internal/source"
	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
	"github.com/leapstack-labs/querychat/internal/ui/router"
)

// Server is the main UI server.
type Server struct {
	store        state.Store
	sources      *source.Registry
	providers    *provider.Registry
	sessionStore *sessions.CookieStore
	port         int
	presetsPath  string
	dev          bool
	logger       *slog.Logger
	notifier     *notifier.Notifier

	mu      sync.RWMutex
	presets []provider.Preset
}

// Config holds configuration for the UI server.
type Config struct {
	Store         state.Store
	Sources       *source.Registry
	Providers     *provider.Registry
	Presets       []provider.Preset
	PresetsPath   string
	Port          int
	SessionSecret string
	Dev           bool
	Logger        *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		store:        cfg.Store,
		sources:      cfg.Sources,
		providers:    cfg.Providers,
		sessionStore: sessionStore,
		port:         cfg.Port,
		presetsPath:  cfg.PresetsPath,
		dev:          cfg.Dev,
		logger:       logger,
		notifier:     notifier.New(),
		presets:      cfg.Presets,
	}
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	err := router.SetupRoutes(r, router.Deps{
		Store:        s.store,
		Sources:      s.sources,
		Providers:    s.providers,
		Presets:      s.Presets,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		Logger:       s.logger,
		IsDev:        s.dev,
	})
	if err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Watch the presets file so model changes apply without a restart
	if s.presetsPath != "" {
		eg.Go(func() error {
			return s.watchPresets(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Presets returns the current preset catalog.
func (s *Server) Presets() []provider.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presets
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchPresets reloads the preset catalog when the file changes.
func (s *Server) watchPresets(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files on save, which drops a
	// watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.presetsPath)); err != nil {
		s.logger.Error("failed to watch presets directory", "error", err)
		return nil
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.presetsPath) {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.reloadPresets()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func (s *Server) reloadPresets() {
	presets, err := provider.LoadPresets(s.presetsPath)
	if err != nil {
		s.logger.Error("failed to reload presets", "error", err)
		return
	}

	s.mu.Lock()
	s.presets = presets
	s.mu.Unlock()

	s.logger.Info("presets reloaded", "count", len(presets))
	s.notifier.Broadcast()
}
