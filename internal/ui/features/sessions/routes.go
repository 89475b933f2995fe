package sessions

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	gorilla "github.com/gorilla/sessions"

	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
)

// SetupRoutes registers the session management routes.
func SetupRoutes(
	router chi.Router,
	store state.Store,
	sessionStore gorilla.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(store, sessionStore, notify, logger)

	router.Route("/api/sessions", func(r chi.Router) {
		r.Post("/new", handlers.NewSessionSSE)
		r.Post("/{id}/switch", handlers.SwitchSessionSSE)
		r.Post("/{id}/rename", handlers.RenameSessionSSE)
		r.Delete("/{id}", handlers.DeleteSessionSSE)
	})

	return nil
}
