// Package history provides handlers for browsing executed queries.
package history

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/features/common"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
)

const historyLimit = 100

// QueryItem is one rendered history row.
type QueryItem struct {
	SQL           string
	Session       string
	RowCount      int
	DurationMS    int64
	Visualization string
	When          string
}

// ViewData is the history view model.
type ViewData struct {
	Queries []QueryItem
}

// Handlers provides the history feature's HTTP handlers.
type Handlers struct {
	store    state.Store
	notifier *notifier.Notifier
	logger   *slog.Logger
	isDev    bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store state.Store, notify *notifier.Notifier, logger *slog.Logger, isDev bool) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{store: store, notifier: notify, logger: logger, isDev: isDev}
}

// HistoryPage renders the page shell; content arrives over /history/sse.
func (h *Handlers) HistoryPage(w http.ResponseWriter, r *http.Request) {
	err := common.RenderPage(w, common.PageData{
		Title:       "History",
		CurrentPath: "/history",
		SSEPath:     "/history/sse",
		IsDev:       h.isDev,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HistorySSE streams the query history view and re-sends it whenever a
// broadcast signals new activity. The connection stays open until the
// client goes away.
func (h *Handlers) HistorySSE(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	for {
		if err := h.patchHistory(sse); err != nil {
			_ = sse.ConsoleError(err)
			return
		}
		select {
		case <-updates:
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handlers) patchHistory(sse *datastar.ServerSentEventGenerator) error {
	data, err := h.buildViewData()
	if err != nil {
		return err
	}
	html, err := renderFragment("history-view", data)
	if err != nil {
		return err
	}
	return sse.PatchElements(html)
}

func (h *Handlers) buildViewData() (ViewData, error) {
	queries, err := h.store.RecentQueries(historyLimit)
	if err != nil {
		return ViewData{}, err
	}

	titles := map[string]string{}
	if sessions, err := h.store.ListSessions(); err == nil {
		for _, s := range sessions {
			titles[s.ID] = s.Title
		}
	}

	var data ViewData
	for _, q := range queries {
		data.Queries = append(data.Queries, QueryItem{
			SQL:           q.SQL,
			Session:       titles[q.SessionID],
			RowCount:      q.RowCount,
			DurationMS:    q.DurationMS,
			Visualization: q.Visualization,
			When:          q.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return data, nil
}
