// Package sessions provides handlers for creating, switching and
// deleting chat sessions.
package sessions

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	gorilla "github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
)

const cookieName = "querychat"

// Handlers provides the session management HTTP handlers.
type Handlers struct {
	store        state.Store
	sessionStore gorilla.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store state.Store, sessionStore gorilla.Store, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		store:        store,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
	}
}

// NewSessionSSE starts a fresh chat session and reloads the page.
func (h *Handlers) NewSessionSSE(w http.ResponseWriter, r *http.Request) {
	// Cookie writes precede the first SSE write.
	sess, err := h.store.CreateSession("New chat", "", "", "")
	if err == nil {
		h.setCurrentSession(w, r, sess.ID)
	}

	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	h.broadcast()
	_ = sse.ExecuteScript("window.location.reload()")
}

// SwitchSessionSSE makes an existing session current and reloads.
func (h *Handlers) SwitchSessionSSE(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	_, err := h.store.GetSession(id)
	if err == nil {
		h.setCurrentSession(w, r, id)
	}

	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	_ = sse.ExecuteScript("window.location.reload()")
}

// RenameSignals carries the new title for a rename.
type RenameSignals struct {
	Title string `json:"title"`
}

// RenameSessionSSE retitles a session and reloads.
func (h *Handlers) RenameSessionSSE(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals RenameSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}

	title := strings.TrimSpace(signals.Title)
	sse := datastar.NewSSE(w, r)
	if title == "" {
		_ = sse.ConsoleError(errors.New("title cannot be empty"))
		return
	}

	if err := h.store.RenameSession(id, title); err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	h.broadcast()
	_ = sse.ExecuteScript("window.location.reload()")
}

// DeleteSessionSSE removes a session and its history.
func (h *Handlers) DeleteSessionSSE(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.DeleteSession(id)
	if err == nil || errors.Is(err, state.ErrNotFound) {
		err = nil
		// Clear the cookie when the current session was deleted; the
		// next page load creates a fresh one.
		cookie, _ := h.sessionStore.Get(r, cookieName)
		if current, ok := cookie.Values["session_id"].(string); ok && current == id {
			delete(cookie.Values, "session_id")
			if serr := cookie.Save(r, w); serr != nil {
				h.logger.Warn("failed to clear session cookie", "error", serr)
			}
		}
	}

	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	h.broadcast()
	_ = sse.ExecuteScript("window.location.reload()")
}

func (h *Handlers) setCurrentSession(w http.ResponseWriter, r *http.Request, id string) {
	cookie, _ := h.sessionStore.Get(r, cookieName)
	cookie.Values["session_id"] = id
	if err := cookie.Save(r, w); err != nil {
		h.logger.Warn("failed to save session cookie", "error", err)
	}
}

func (h *Handlers) broadcast() {
	if h.notifier != nil {
		h.notifier.Broadcast()
	}
}
