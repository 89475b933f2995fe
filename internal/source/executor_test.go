package source

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querychat/internal/testutil"
)

func TestValidateReadOnly(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ok    bool
	}{
		{"select", "SELECT * FROM sales", true},
		{"lowercase select", "select 1", true},
		{"cte", "WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"trailing semicolon", "SELECT 1;", true},
		{"leading comment", "-- totals\nSELECT SUM(amount) FROM sales", true},
		{"block comment", "/* per state */ SELECT state FROM sales", true},
		{"insert", "INSERT INTO sales VALUES (1)", false},
		{"update", "UPDATE sales SET amount = 0", false},
		{"delete", "DELETE FROM sales", false},
		{"drop", "DROP TABLE sales", false},
		{"pragma", "PRAGMA journal_mode", false},
		{"stacked statements", "SELECT 1; DROP TABLE sales", false},
		{"cte hiding a delete", "WITH t AS (DELETE FROM sales RETURNING *) SELECT * FROM t", false},
		{"empty", "", false},
		{"column named created_at is fine", "SELECT created_at FROM sales", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReadOnly(tt.query)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrNotReadOnly)
			}
		})
	}
}

func seedSQLite(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sales.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE sales (
			state TEXT NOT NULL,
			month TEXT NOT NULL,
			revenue REAL
		);
		INSERT INTO sales VALUES
			('California', '2024-01', 1000),
			('California', '2024-02', 1500),
			('Texas', '2024-01', 800);
	`)
	require.NoError(t, err)
	return path
}

func openTestSource(t *testing.T) *Source {
	t.Helper()

	path := seedSQLite(t)
	src, err := Open(context.Background(), Config{
		Name:   "sales",
		Driver: "sqlite",
		Path:   path,
	}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestQueryScansResultSet(t *testing.T) {
	src := openTestSource(t)

	res, err := src.Query(context.Background(),
		"SELECT month, SUM(revenue) AS revenue FROM sales GROUP BY month ORDER BY month")
	require.NoError(t, err)

	rs := res.Set
	assert.Equal(t, []string{"month", "revenue"}, rs.Columns)
	require.Equal(t, 2, rs.RowCount())
	assert.Equal(t, "2024-01", rs.Cell(0, "month").Text())
	jan, ok := rs.Cell(0, "revenue").Float()
	require.True(t, ok)
	assert.Equal(t, float64(1800), jan)
	assert.False(t, res.Truncated)
}

func TestQueryRejectsWrites(t *testing.T) {
	src := openTestSource(t)

	_, err := src.Query(context.Background(), "DELETE FROM sales")
	assert.ErrorIs(t, err, ErrNotReadOnly)
}

func TestQueryConnectionIsReadOnly(t *testing.T) {
	src := openTestSource(t)

	// Even a write snuck past validation must be refused by the engine.
	_, err := src.DB().Exec("INSERT INTO sales VALUES ('Nevada', '2024-01', 5)")
	assert.Error(t, err)
}

func TestDescribeSchemaSQLite(t *testing.T) {
	src := openTestSource(t)

	tables, err := src.DescribeSchema(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "sales", tables[0].Name)
	require.Len(t, tables[0].Columns, 3)
	assert.Equal(t, "state", tables[0].Columns[0].Name)
	assert.False(t, tables[0].Columns[0].Nullable)
	assert.True(t, tables[0].Columns[2].Nullable)

	text := SchemaText(tables)
	assert.Contains(t, text, "TABLE sales (state TEXT, month TEXT, revenue REAL)")
}

func TestDescribeSchemaInformationSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM information_schema.columns").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "is_nullable"}).
			AddRow("orders", "id", "integer", "NO").
			AddRow("orders", "total", "numeric", "YES").
			AddRow("users", "email", "text", "NO"))

	src := &Source{name: "wh", driver: "postgres", dialect: "PostgreSQL",
		db: db, logger: testutil.NewTestLogger(t)}

	tables, err := src.DescribeSchema(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "orders", tables[0].Name)
	assert.Len(t, tables[0].Columns, 2)
	assert.Equal(t, "users", tables[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Name: "x", Driver: "oracle"}, nil)
	var unknownErr *UnknownDriverError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "oracle", unknownErr.Driver)
}

func TestRegistryLookup(t *testing.T) {
	path := seedSQLite(t)
	reg, err := NewRegistry(context.Background(), []Config{
		{Name: "sales", Driver: "sqlite", Path: path},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	src, err := reg.Get("sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", src.Name())
	assert.Equal(t, "SQLite", src.Dialect())

	// Empty name falls back to the first configured source.
	first, err := reg.Get("")
	require.NoError(t, err)
	assert.Equal(t, "sales", first.Name())

	_, err = reg.Get("nope")
	assert.Error(t, err)
}
