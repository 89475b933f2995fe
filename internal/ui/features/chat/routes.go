package chat

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/querychat/internal/provider"
	"github.com/leapstack-labs/querychat/internal/source"
	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
)

// SetupRoutes registers the chat feature routes.
func SetupRoutes(
	router chi.Router,
	store state.Store,
	sources *source.Registry,
	providers *provider.Registry,
	presets func() []provider.Preset,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) error {
	handlers := NewHandlers(store, sources, providers, presets, sessionStore, notify, logger, isDev)

	// Page routes
	router.Get("/", handlers.ChatPage)
	router.Get("/sse", handlers.ChatSSE)

	// API routes
	router.Route("/api/chat", func(r chi.Router) {
		r.Post("/ask", handlers.AskSSE)
	})

	return nil
}
