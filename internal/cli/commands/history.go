package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querychat/internal/provider"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show executed queries and chat sessions",
		Long: `Inspect the chat state database.

Without a subcommand, lists recently executed queries across all
sessions, newest first.`,
		Example: `  # Recent queries
  querychat history

  # Sessions
  querychat history sessions

  # Transcript of one session
  querychat history messages 4f6b8a`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryQueries(cmd, opts)
		},
	}

	cmd.PersistentFlags().IntVarP(&opts.Limit, "limit", "n", 50, "Maximum entries to show")

	cmd.AddCommand(newHistorySessionsCommand())
	cmd.AddCommand(newHistoryMessagesCommand())

	return cmd
}

func runHistoryQueries(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := newStoreOnlyContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := cmdCtx.Store.RecentQueries(opts.Limit)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.CreatedAt.Local().Format(time.DateTime),
			provider.CompactWhitespace(rec.SQL),
			strconv.Itoa(rec.RowCount),
			strconv.FormatInt(rec.DurationMS, 10),
			rec.Visualization,
		})
	}
	return cmdCtx.Renderer.Table([]string{"when", "sql", "rows", "ms", "viz"}, rows)
}

func newHistorySessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List chat sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := newStoreOnlyContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sessions, err := cmdCtx.Store.ListSessions()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				model := s.Model
				if s.Provider != "" {
					model = s.Provider + "/" + s.Model
				}
				rows = append(rows, []string{
					s.ID,
					s.Title,
					model,
					s.Source,
					s.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			return cmdCtx.Renderer.Table([]string{"id", "title", "model", "source", "updated"}, rows)
		},
	}
}

func newHistoryMessagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "messages <session-id>",
		Short: "Show the transcript of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := newStoreOnlyContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			msgs, err := cmdCtx.Store.ListMessages(args[0])
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			for _, m := range msgs {
				r.Printf("[%s] %s\n", m.Role, m.Content)
				if m.SQL != "" {
					r.Printf("  sql: %s\n", provider.CompactWhitespace(m.SQL))
				}
				if m.Error != "" {
					r.Printf("  error: %s\n", m.Error)
				}
			}
			if len(msgs) == 0 {
				r.Printf("(no messages)\n")
			}
			return nil
		},
	}
}

// newStoreOnlyContext opens just the state store. History commands do
// not need sources or providers.
func newStoreOnlyContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStores(cmd)

	if _, err := os.Stat(cmdCtx.Cfg.StatePath); err != nil {
		return nil, nil, fmt.Errorf("no chat history at %s (run 'querychat chat' or 'querychat serve' first)", cmdCtx.Cfg.StatePath)
	}

	store, err := openStateStore(cmdCtx.Cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Store = store

	return cmdCtx, func() { _ = store.Close() }, nil
}
