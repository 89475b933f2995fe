package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
)

func newTestRouter(t *testing.T) (chi.Router, state.Store) {
	t.Helper()

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })

	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, store, notifier.New(), nil, false))
	return r, store
}

func seedQuery(t *testing.T, store state.Store) {
	t.Helper()

	sess, err := store.CreateSession("Revenue digging", "ollama", "llama3.2", "sales")
	require.NoError(t, err)
	_, err = store.RecordQuery(sess.ID, "SELECT month, revenue FROM sales", 3, 12, "chart")
	require.NoError(t, err)
}

func TestHistoryPageShell(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "<title>History")
	assert.Contains(t, body, "@get('/history/sse')")
}

// serveSSE runs an SSE request with a deadline so the handler's wait
// loop exits after the first patch.
func serveSSE(t *testing.T, r chi.Router, path string) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Body.String()
}

func TestHistorySSEStreamsQueries(t *testing.T) {
	r, store := newTestRouter(t)
	seedQuery(t, store)

	body := serveSSE(t, r, "/history/sse")
	assert.Contains(t, body, "SELECT month, revenue FROM sales")
	assert.Contains(t, body, "Revenue digging")
	assert.Contains(t, body, "chart")
}

func TestHistorySSEEmptyState(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Contains(t, serveSSE(t, r, "/history/sse"), "No queries yet")
}

func TestBuildViewDataResolvesSessionTitles(t *testing.T) {
	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })
	seedQuery(t, store)

	h := NewHandlers(store, notifier.New(), nil, false)
	data, err := h.buildViewData()
	require.NoError(t, err)
	require.Len(t, data.Queries, 1)
	assert.Equal(t, "Revenue digging", data.Queries[0].Session)
	assert.Equal(t, 3, data.Queries[0].RowCount)
	assert.Equal(t, int64(12), data.Queries[0].DurationMS)
}
