package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/leapstack-labs/querychat/internal/insight"
)

// ErrNotReadOnly is returned when a statement is not a plain SELECT or
// WITH query.
var ErrNotReadOnly = errors.New("only SELECT queries are allowed")

// MaxRows caps how many rows a query may return into memory.
const MaxRows = 10000

var (
	leadingCommentRe = regexp.MustCompile(`(?s)^\s*(--[^\n]*\n|/\*.*?\*/\s*)+`)
	readOnlyLeadRe   = regexp.MustCompile(`(?i)^\s*(SELECT|WITH)\b`)
	forbiddenRe      = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|ATTACH|PRAGMA|GRANT|REVOKE|COPY|VACUUM|REPLACE|MERGE)\b`)
)

// ValidateReadOnly rejects anything that is not a single SELECT or WITH
// statement. The pragma on the sqlite connection enforces this at the
// engine level too; this check gives a clean error before execution and
// covers drivers without such a switch.
func ValidateReadOnly(query string) error {
	stripped := leadingCommentRe.ReplaceAllString(query, "")
	if !readOnlyLeadRe.MatchString(stripped) {
		return ErrNotReadOnly
	}
	if strings.Count(stripped, ";") > 1 ||
		(strings.Contains(stripped, ";") && !strings.HasSuffix(strings.TrimSpace(stripped), ";")) {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	if forbiddenRe.MatchString(stripped) {
		return fmt.Errorf("%w: statement contains a write keyword", ErrNotReadOnly)
	}
	return nil
}

// Result pairs the scanned rows with execution metadata.
type Result struct {
	Set      *insight.ResultSet
	Duration time.Duration
	// Truncated is set when the row cap cut the result short.
	Truncated bool
}

// Query validates and executes a read-only statement, scanning every
// row into a ResultSet.
func (s *Source) Query(ctx context.Context, query string) (*Result, error) {
	if err := ValidateReadOnly(query); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rs := insight.NewResultSet(cols)
	result := &Result{Set: rs}
	for rows.Next() {
		if rs.RowCount() >= MaxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rs.AppendRow(values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.Duration = time.Since(start)
	s.logger.Debug("query executed",
		slog.String("source", s.name),
		slog.Int("rows", rs.RowCount()),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// Table describes one table of a source's schema.
type Table struct {
	Name    string
	Columns []Column
}

// Column describes one column of a table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// DescribeSchema lists the tables and columns of the source. The output
// feeds the SQL generation prompt.
func (s *Source) DescribeSchema(ctx context.Context) ([]Table, error) {
	switch s.driver {
	case "sqlite":
		return s.describeSQLite(ctx)
	default:
		return s.describeInformationSchema(ctx)
	}
}

// SchemaText renders tables as a compact prompt-friendly description.
func SchemaText(tables []Table) string {
	var b strings.Builder
	for _, t := range tables {
		b.WriteString("TABLE ")
		b.WriteString(t.Name)
		b.WriteString(" (")
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			b.WriteString(" ")
			b.WriteString(c.Type)
		}
		b.WriteString(")\n")
	}
	return b.String()
}

func (s *Source) describeSQLite(ctx context.Context) ([]Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		cols, err := s.sqliteColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Name: name, Columns: cols})
	}
	return tables, nil
}

func (s *Source) sqliteColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		var notNull int
		if err := rows.Scan(&col.Name, &col.Type, &notNull); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Nullable = notNull == 0
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (s *Source) describeInformationSchema(ctx context.Context) ([]Table, error) {
	query := `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_name, ordinal_position`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer rows.Close()

	var tables []Table
	byName := map[string]int{}
	for rows.Next() {
		var table, nullable string
		var col Column
		if err := rows.Scan(&table, &col.Name, &col.Type, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		idx, ok := byName[table]
		if !ok {
			tables = append(tables, Table{Name: table})
			idx = len(tables) - 1
			byName[table] = idx
		}
		tables[idx].Columns = append(tables[idx].Columns, col)
	}
	return tables, rows.Err()
}
