package history

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
)

// SetupRoutes registers the history feature routes.
func SetupRoutes(
	router chi.Router,
	store state.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) error {
	handlers := NewHandlers(store, notify, logger, isDev)

	router.Get("/history", handlers.HistoryPage)
	router.Get("/history/sse", handlers.HistorySSE)

	return nil
}
