package sessions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	gorilla "github.com/gorilla/sessions"
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
	err := SetupRoutes(r, store, gorilla.NewCookieStore([]byte("test")), notifier.New(), nil)
	require.NoError(t, err)
	return r, store
}

func TestNewSessionSetsCookieAndReloads(t *testing.T) {
	r, store := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions/new", nil))

	assert.Contains(t, w.Body.String(), "window.location.reload()")
	assert.NotEmpty(t, w.Result().Cookies())

	sessions, err := store.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "New chat", sessions[0].Title)
}

func TestSwitchSessionUnknownID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions/nope/switch", nil))

	assert.NotContains(t, w.Body.String(), "window.location.reload()")
}

func TestRenameSessionUpdatesTitle(t *testing.T) {
	r, store := newTestRouter(t)

	sess, err := store.CreateSession("New chat", "", "", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sess.ID+"/rename",
		strings.NewReader(`{"title": "Q1 revenue"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "window.location.reload()")
	renamed, err := store.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1 revenue", renamed.Title)
}

func TestRenameSessionRejectsEmptyTitle(t *testing.T) {
	r, store := newTestRouter(t)

	sess, err := store.CreateSession("New chat", "", "", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sess.ID+"/rename",
		strings.NewReader(`{"title": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.NotContains(t, w.Body.String(), "window.location.reload()")
	kept, err := store.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "New chat", kept.Title)
}

func TestDeleteSessionRemovesFromStore(t *testing.T) {
	r, store := newTestRouter(t)

	sess, err := store.CreateSession("doomed", "", "", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "window.location.reload()")
	_, err = store.GetSession(sess.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)
}

func TestDeleteSessionBroadcasts(t *testing.T) {
	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })

	n := notifier.New()
	ch := n.Subscribe()
	defer n.Unsubscribe(ch)

	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, store, gorilla.NewCookieStore([]byte("test")), n, nil))

	sess, err := store.CreateSession("doomed", "", "", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil))

	select {
	case <-ch:
	default:
		t.Fatal("expected a broadcast after delete")
	}
}
