package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querychat/internal/cli/output"
	"github.com/leapstack-labs/querychat/internal/insight"
	"github.com/leapstack-labs/querychat/internal/provider"
	"github.com/leapstack-labs/querychat/internal/source"
	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/features/chat"
	"github.com/leapstack-labs/querychat/internal/ui/features/common"
)

// ChatOptions holds options for the chat command.
type ChatOptions struct {
	Preset string
	Source string
	New    bool
}

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	opts := &ChatOptions{}

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Chat with a database from the terminal",
		Long: `Ask natural-language questions about a configured database.

Each question is turned into SQL by the selected provider preset, run
read-only against the source, and the result set is analyzed and
rendered with statistics, correlations and trends.

When invoked without arguments, enters interactive REPL mode.`,
		Example: `  # One-shot question
  querychat chat "total revenue by month in 2024"

  # Pick a preset and source
  querychat chat --preset accurate --source warehouse

  # Interactive mode
  querychat chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Preset, "preset", "p", "", "Provider preset to use")
	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "Source to query (default: first configured)")
	cmd.Flags().BoolVar(&opts.New, "new", false, "Start a new session instead of resuming the last one")

	return cmd
}

// chatTurn bundles what one question needs to run.
type chatTurn struct {
	cmdCtx  *CommandContext
	preset  provider.Preset
	src     *source.Source
	session *state.Session
	showSQL bool
}

func runChat(cmd *cobra.Command, args []string, opts *ChatOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	preset, err := cmdCtx.AskPreset(opts.Preset)
	if err != nil {
		return err
	}
	src, err := cmdCtx.Sources.Get(opts.Source)
	if err != nil {
		return err
	}

	var session *state.Session
	if opts.New {
		session, err = cmdCtx.Store.CreateSession("New chat", preset.Provider, preset.Model, src.Name())
	} else {
		session, err = resolveSession(cmdCtx.Store, preset, src.Name())
	}
	if err != nil {
		return err
	}

	turn := &chatTurn{
		cmdCtx:  cmdCtx,
		preset:  preset,
		src:     src,
		session: session,
		showSQL: true,
	}

	if len(args) > 0 {
		return askQuestion(cmd.Context(), turn, strings.Join(args, " "))
	}
	return runChatREPL(cmd, turn)
}

func runChatREPL(cmd *cobra.Command, turn *chatTurn) error {
	ctx := cmd.Context()
	cmdCtx := turn.cmdCtx

	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "chat_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "querychat> ",
		HistoryFile:     historyFile,
		AutoComplete:    newChatCompleter(cmdCtx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "QueryChat (%s/%s, source: %s)\n", turn.preset.Provider, turn.preset.Model, turn.src.Name())
	_, _ = fmt.Fprintln(out, "Ask a question in plain language. Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if handleChatDotCommand(ctx, cmd, turn, line) {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		if err := askQuestion(ctx, turn, line); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

// askQuestion runs the full question pipeline: prompt, SQL extraction,
// read-only execution, analysis, and a spoken answer.
func askQuestion(ctx context.Context, turn *chatTurn, question string) error {
	cmdCtx := turn.cmdCtx
	r := cmdCtx.Renderer
	prov, err := cmdCtx.Providers.Get(turn.preset.Provider)
	if err != nil {
		return err
	}

	if _, err := cmdCtx.Store.AppendMessage(turn.session.ID, state.RoleUser, question, "", ""); err != nil {
		return err
	}

	schema, err := turn.src.DescribeSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to describe schema: %w", err)
	}

	resp, err := prov.Chat(ctx, provider.ChatRequest{
		Model: turn.preset.Model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: provider.SQLSystemPrompt(turn.src.Dialect(), source.SchemaText(schema))},
			{Role: provider.RoleUser, Content: question},
		},
		MaxTokens:   turn.preset.MaxTokens,
		Temperature: turn.preset.Temperature,
	})
	if err != nil {
		return err
	}

	query, ok := provider.ExtractSQL(resp.Content)
	if !ok {
		msg := "the model did not return a SQL query"
		_, _ = cmdCtx.Store.AppendMessage(turn.session.ID, state.RoleAssistant, resp.Content, "", msg)
		return errors.New(msg)
	}

	if turn.showSQL {
		r.Printf("sql> %s\n\n", provider.CompactWhitespace(query))
	}

	result, err := turn.src.Query(ctx, query)
	if err != nil {
		_, _ = cmdCtx.Store.AppendMessage(turn.session.ID, state.RoleAssistant, "", query, err.Error())
		return err
	}

	report := insight.Analyze(result.Set)
	renderAnalyzedResult(r, report, result.Set, result.Duration.Milliseconds(), result.Truncated)

	answer := answerFor(ctx, prov, turn.preset, question, query, report, result.Set)
	r.Printf("\n%s\n", answer)

	if _, err := cmdCtx.Store.AppendMessage(turn.session.ID, state.RoleAssistant, answer, query, ""); err != nil {
		return err
	}
	if _, err := cmdCtx.Store.RecordQuery(turn.session.ID, query, report.RowCount, result.Duration.Milliseconds(), report.Visualization.Kind.String()); err != nil {
		return err
	}
	return cmdCtx.Store.TouchSession(turn.session.ID)
}

// answerFor asks the provider to phrase the result in plain language,
// falling back to a row count when the call fails.
func answerFor(ctx context.Context, prov provider.Provider, preset provider.Preset, question, query string, report insight.Report, rs *insight.ResultSet) string {
	summary := chat.SummarizeReport(report) + "\n\nSample rows:\n" + chat.SummarizeRows(rs, report)
	resp, err := prov.Chat(ctx, provider.ChatRequest{
		Model: preset.Model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: provider.AnswerSystemPrompt},
			{Role: provider.RoleUser, Content: provider.AnswerUserPrompt(question, query, summary)},
		},
		MaxTokens:   preset.MaxTokens,
		Temperature: preset.Temperature,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		return fmt.Sprintf("The query returned %d rows.", report.RowCount)
	}
	return strings.TrimSpace(resp.Content)
}

// renderAnalyzedResult prints the result set and its analysis. Markdown
// mode reuses the web result template and downconverts it, so piped
// output matches what the browser shows.
func renderAnalyzedResult(r *output.Renderer, report insight.Report, rs *insight.ResultSet, durationMS int64, truncated bool) {
	view := common.BuildResultView(report, rs, durationMS, truncated)

	if r.Mode() == output.ModeMarkdown {
		if html, err := common.RenderResult(view); err == nil {
			if md, err := htmltomarkdown.ConvertString(string(html)); err == nil {
				r.Printf("%s\n", strings.TrimSpace(md))
				return
			}
		}
	}

	if view.EmptyMessage != "" {
		r.Printf("%s\n", view.EmptyMessage)
		return
	}
	if view.Table != nil {
		_ = r.Table(view.Table.Headers, view.Table.Rows)
		if view.Table.Truncated {
			r.Printf("(truncated)\n")
		}
	}

	for _, s := range view.Insights.Stats {
		r.Printf("stats %s: mean %s, median %s, stddev %s, min %s, max %s\n",
			s.Column, s.Mean, s.Median, s.StdDev, s.Min, s.Max)
	}
	for _, c := range view.Insights.Correlations {
		r.Printf("correlation: %s\n", c)
	}
	for _, t := range view.Insights.Trends {
		r.Printf("trend: %s\n", t)
	}
	if view.Kind == "chart" || view.Kind == "map" {
		r.Printf("suggested visualization: %s\n", view.Kind)
	}
}

func handleChatDotCommand(ctx context.Context, cmd *cobra.Command, turn *chatTurn, line string) bool {
	cmdCtx := turn.cmdCtx
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printChatHelp(out)
		return true

	case ".sql":
		turn.showSQL = !turn.showSQL
		label := "hidden"
		if turn.showSQL {
			label = "shown"
		}
		_, _ = fmt.Fprintf(out, "Generated SQL is now %s\n", label)
		return true

	case ".schema":
		schema, err := turn.src.DescribeSchema(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return true
		}
		_, _ = fmt.Fprint(out, source.SchemaText(schema))
		return true

	case ".presets":
		for _, p := range cmdCtx.Presets {
			marker := " "
			if p.Name == turn.preset.Name {
				marker = "*"
			}
			_, _ = fmt.Fprintf(out, "%s %-12s %s/%s\n", marker, p.Name, p.Provider, p.Model)
		}
		return true

	case ".preset":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .preset <name>")
			return true
		}
		preset, err := cmdCtx.AskPreset(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return true
		}
		turn.preset = preset
		_, _ = fmt.Fprintf(out, "Using %s (%s/%s)\n", preset.Name, preset.Provider, preset.Model)
		return true

	case ".source":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "Sources: %s\n", strings.Join(cmdCtx.Sources.Names(), ", "))
			return true
		}
		src, err := cmdCtx.Sources.Get(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return true
		}
		turn.src = src
		_, _ = fmt.Fprintf(out, "Querying %s (%s)\n", src.Name(), src.Dialect())
		return true

	case ".history":
		records, err := cmdCtx.Store.ListQueryHistory(turn.session.ID, 10)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return true
		}
		for _, rec := range records {
			_, _ = fmt.Fprintf(out, "%s  %4d rows  %s\n",
				rec.CreatedAt.Local().Format("15:04:05"), rec.RowCount, provider.CompactWhitespace(rec.SQL))
		}
		return true

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printChatHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .sql            Toggle showing the generated SQL
  .schema         Show the current source's schema
  .presets        List provider presets
  .preset <name>  Switch provider preset
  .source [name]  Show or switch the queried source
  .history        Show recent queries in this session
  .quit / .exit   Exit

Anything else is treated as a question about your data.
`
	_, _ = fmt.Fprintln(w, help)
}

// newChatCompleter creates a readline completer for dot-commands and
// configured names.
func newChatCompleter(cmdCtx *CommandContext) *readline.PrefixCompleter {
	var presetItems []readline.PrefixCompleterInterface
	for _, p := range cmdCtx.Presets {
		presetItems = append(presetItems, readline.PcItem(p.Name))
	}
	var sourceItems []readline.PrefixCompleterInterface
	for _, name := range cmdCtx.Sources.Names() {
		sourceItems = append(sourceItems, readline.PcItem(name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".sql"),
		readline.PcItem(".schema"),
		readline.PcItem(".presets"),
		readline.PcItem(".preset", presetItems...),
		readline.PcItem(".source", sourceItems...),
		readline.PcItem(".history"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
