// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/querychat/internal/provider"
	"github.com/leapstack-labs/querychat/internal/source"
	"github.com/leapstack-labs/querychat/internal/state"
	chatFeature "github.com/leapstack-labs/querychat/internal/ui/features/chat"
	historyFeature "github.com/leapstack-labs/querychat/internal/ui/features/history"
	sessionsFeature "github.com/leapstack-labs/querychat/internal/ui/features/sessions"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
	"github.com/leapstack-labs/querychat/internal/ui/resources"
)

// Deps carries everything the feature handlers need.
type Deps struct {
	Store        state.Store
	Sources      *source.Registry
	Providers    *provider.Registry
	Presets      func() []provider.Preset
	SessionStore *sessions.CookieStore
	Notifier     *notifier.Notifier
	Logger       *slog.Logger
	IsDev        bool
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps) error {
	// Hot reload endpoint for dev mode
	if deps.IsDev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	// Feature routes
	if err := chatFeature.SetupRoutes(router, deps.Store, deps.Sources, deps.Providers,
		deps.Presets, deps.SessionStore, deps.Notifier, deps.Logger, deps.IsDev); err != nil {
		return err
	}

	if err := historyFeature.SetupRoutes(router, deps.Store, deps.Notifier,
		deps.Logger, deps.IsDev); err != nil {
		return err
	}

	if err := sessionsFeature.SetupRoutes(router, deps.Store, deps.SessionStore,
		deps.Notifier, deps.Logger); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
