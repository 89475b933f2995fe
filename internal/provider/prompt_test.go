package provider

import (
	"strings"
	"testing"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
		ok    bool
	}{
		{
			name:  "sql fence",
			reply: "Here you go:\n```sql\nSELECT state, SUM(amount) FROM sales GROUP BY state;\n```\nEnjoy.",
			want:  "SELECT state, SUM(amount) FROM sales GROUP BY state",
			ok:    true,
		},
		{
			name:  "plain fence with select",
			reply: "```\nSELECT 1\n```",
			want:  "SELECT 1",
			ok:    true,
		},
		{
			name:  "plain fence with cte",
			reply: "```\nWITH t AS (SELECT 1) SELECT * FROM t\n```",
			want:  "WITH t AS (SELECT 1) SELECT * FROM t",
			ok:    true,
		},
		{
			name:  "bare query",
			reply: "  select count(*) from orders  ",
			want:  "select count(*) from orders",
			ok:    true,
		},
		{
			name:  "sql fence wins over earlier plain fence",
			reply: "```\nnot sql\n```\n```sql\nSELECT 2\n```",
			want:  "SELECT 2",
			ok:    true,
		},
		{
			name:  "no sql",
			reply: "I cannot answer that question from this schema.",
			ok:    false,
		},
		{
			name:  "fence without query",
			reply: "```\nDROP TABLE users\n```",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSQL(tt.reply)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("sql = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSQLSystemPrompt(t *testing.T) {
	p := SQLSystemPrompt("SQLite", "TABLE sales (state TEXT, amount REAL)")
	if !strings.Contains(p, "SQLite") {
		t.Error("prompt missing dialect")
	}
	if !strings.Contains(p, "TABLE sales") {
		t.Error("prompt missing schema")
	}
	if !strings.Contains(p, "SELECT or WITH") {
		t.Error("prompt missing read-only rule")
	}
}

func TestCompactWhitespace(t *testing.T) {
	got := CompactWhitespace("SELECT *\n  FROM t\n WHERE x = 1")
	if got != "SELECT * FROM t WHERE x = 1" {
		t.Errorf("got %q", got)
	}
}
