package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querychat/internal/cli/config"
	"github.com/leapstack-labs/querychat/internal/state"
)

func seedStateDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state.db")
	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())

	sess, err := store.CreateSession("Revenue digging", "ollama", "llama3.2", "sales")
	require.NoError(t, err)
	_, err = store.AppendMessage(sess.ID, state.RoleUser, "monthly revenue?", "", "")
	require.NoError(t, err)
	_, err = store.AppendMessage(sess.ID, state.RoleAssistant, "It grew.", "SELECT month, revenue FROM sales", "")
	require.NoError(t, err)
	_, err = store.RecordQuery(sess.ID, "SELECT month, revenue FROM sales", 2, 7, "chart")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	return path
}

func runHistory(t *testing.T, statePath string, args ...string) string {
	t.Helper()

	config.ResetConfig()
	t.Setenv("QUERYCHAT_STATE_PATH", statePath)
	t.Setenv("QUERYCHAT_OUTPUT", "markdown")

	cmd := NewHistoryCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestHistoryListsRecentQueries(t *testing.T) {
	out := runHistory(t, seedStateDB(t))

	assert.Contains(t, out, "SELECT month, revenue FROM sales")
	assert.Contains(t, out, "chart")
}

func TestHistorySessions(t *testing.T) {
	out := runHistory(t, seedStateDB(t), "sessions")

	assert.Contains(t, out, "Revenue digging")
	assert.Contains(t, out, "ollama/llama3.2")
	assert.Contains(t, out, "sales")
}

func TestHistoryMessagesTranscript(t *testing.T) {
	statePath := seedStateDB(t)

	// Look up the session ID through the store.
	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(statePath))
	sessions, err := store.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	id := sessions[0].ID
	require.NoError(t, store.Close())

	out := runHistory(t, statePath, "messages", id)

	assert.Contains(t, out, "[user] monthly revenue?")
	assert.Contains(t, out, "[assistant] It grew.")
	assert.Contains(t, out, "sql: SELECT month, revenue FROM sales")
}

func TestHistoryMissingStateDB(t *testing.T) {
	config.ResetConfig()
	t.Setenv("QUERYCHAT_STATE_PATH", filepath.Join(t.TempDir(), "missing.db"))

	cmd := NewHistoryCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chat history")
}
