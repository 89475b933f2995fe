package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querychat/internal/insight"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format  string
	Input   string
	Source  string
	Analyze bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a read-only SQL query against a source",
		Long: `Execute a SQL query directly, skipping the AI provider.

Queries run with the same read-only guard as generated SQL: a single
SELECT or WITH statement, no writes. Output cells are formatted by the
inferred column kind (dates, counts, currency).`,
		Example: `  # Run SQL directly
  querychat query "SELECT month, revenue FROM sales ORDER BY month"

  # Pick a source and output format
  querychat query "SELECT * FROM orders LIMIT 10" --source warehouse --format json

  # Include the full analysis report
  querychat query "SELECT state, total FROM sales_by_state" --analyze

  # Read SQL from a file or stdin
  querychat query --input monthly.sql
  cat monthly.sql | querychat query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryCmd(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "Source to query (default: first configured)")
	cmd.Flags().BoolVar(&opts.Analyze, "analyze", false, "Print the analysis report after the result")

	return cmd
}

func runQueryCmd(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	src, err := cmdCtx.Sources.Get(opts.Source)
	if err != nil {
		return err
	}

	// Determine SQL source
	var sqlQuery string
	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return fmt.Errorf("no SQL given: pass it as an argument, via --input, or on stdin")
	}

	result, err := src.Query(cmd.Context(), sqlQuery)
	if err != nil {
		return err
	}

	report := insight.Analyze(result.Set)
	w := cmd.OutOrStdout()
	if err := renderResultSet(w, result.Set, report, opts.Format); err != nil {
		return err
	}
	if result.Truncated {
		_, _ = fmt.Fprintln(w, "(truncated)")
	}

	if opts.Analyze {
		_, _ = fmt.Fprintln(w)
		renderReport(w, report)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
