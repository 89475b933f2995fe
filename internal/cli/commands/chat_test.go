package commands

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querychat/internal/cli/config"
	"github.com/leapstack-labs/querychat/internal/cli/testutil"
	"github.com/leapstack-labs/querychat/internal/provider"
	"github.com/leapstack-labs/querychat/internal/source"
	"github.com/leapstack-labs/querychat/internal/state"
)

// scriptedProvider returns canned replies in order.
type scriptedProvider struct {
	replies []string
	calls   int
}

func (p *scriptedProvider) Name() string { return "ollama" }

func (p *scriptedProvider) Chat(_ context.Context, _ provider.ChatRequest) (*provider.ChatResponse, error) {
	reply := p.replies[len(p.replies)-1]
	if p.calls < len(p.replies) {
		reply = p.replies[p.calls]
	}
	p.calls++
	return &provider.ChatResponse{Content: reply}, nil
}

func newChatTestTurn(t *testing.T, prov provider.Provider, r *testutil.TestRenderer) (*chatTurn, *state.SQLiteStore) {
	t.Helper()

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	sources, err := source.NewRegistry(context.Background(), []source.Config{
		{Name: "sales", Driver: "sqlite", Path: testutil.SeedSalesDB(t)},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sources.Close() })

	providers := provider.NewRegistry()
	providers.Register(prov)

	preset := provider.Preset{Name: "local", Provider: "ollama", Model: "llama3.2"}

	src, err := sources.Get("sales")
	require.NoError(t, err)

	sess, err := store.CreateSession("Test chat", preset.Provider, preset.Model, src.Name())
	require.NoError(t, err)

	cmdCtx := &CommandContext{
		Cfg:       &config.Config{},
		Logger:    slog.New(slog.DiscardHandler),
		Renderer:  r.Renderer,
		Store:     store,
		Sources:   sources,
		Providers: providers,
		Presets:   []provider.Preset{preset},
	}

	return &chatTurn{
		cmdCtx:  cmdCtx,
		preset:  preset,
		src:     src,
		session: sess,
		showSQL: true,
	}, store
}

func TestAskQuestionPipeline(t *testing.T) {
	prov := &scriptedProvider{replies: []string{
		"```sql\nSELECT month, revenue FROM sales ORDER BY month\n```",
		"Revenue rose through Q1 with a dip in March.",
	}}
	r := testutil.NewTestRendererText()
	turn, store := newChatTestTurn(t, prov, r)

	require.NoError(t, askQuestion(context.Background(), turn, "monthly revenue?"))

	out := r.Output()
	assert.Contains(t, out, "sql> SELECT month, revenue FROM sales")
	assert.Contains(t, out, "$1,000.00")
	assert.Contains(t, out, "trend:")
	assert.Contains(t, out, "suggested visualization: chart")
	assert.Contains(t, out, "Revenue rose through Q1")
	assert.Equal(t, 2, prov.calls)

	msgs, err := store.ListMessages(turn.session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, state.RoleUser, msgs[0].Role)
	assert.Contains(t, msgs[1].SQL, "FROM sales")

	records, err := store.ListQueryHistory(turn.session.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].RowCount)
	assert.Equal(t, "chart", records[0].Visualization)
}

func TestAskQuestionMarkdownOutput(t *testing.T) {
	prov := &scriptedProvider{replies: []string{
		"```sql\nSELECT month, revenue FROM sales ORDER BY month\n```",
		"Revenue grew overall.",
	}}
	r := testutil.NewTestRendererMarkdown()
	turn, _ := newChatTestTurn(t, prov, r)

	require.NoError(t, askQuestion(context.Background(), turn, "monthly revenue?"))

	out := r.Output()
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	// The web result fragment downconverted to markdown keeps the data.
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "$1,000.00")
}

func TestAskQuestionRejectsNonSQL(t *testing.T) {
	prov := &scriptedProvider{replies: []string{"I cannot answer that."}}
	r := testutil.NewTestRendererText()
	turn, store := newChatTestTurn(t, prov, r)

	err := askQuestion(context.Background(), turn, "what is love?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not return a SQL query")

	msgs, err := store.ListMessages(turn.session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.NotEmpty(t, msgs[1].Error)
}

func TestAskQuestionQueryFailureKeepsSQL(t *testing.T) {
	prov := &scriptedProvider{replies: []string{"```sql\nSELECT nope FROM missing\n```"}}
	r := testutil.NewTestRendererText()
	turn, store := newChatTestTurn(t, prov, r)

	err := askQuestion(context.Background(), turn, "bad question")
	require.Error(t, err)

	msgs, err := store.ListMessages(turn.session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].SQL, "FROM missing")
	assert.NotEmpty(t, msgs[1].Error)

	records, err := store.ListQueryHistory(turn.session.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
