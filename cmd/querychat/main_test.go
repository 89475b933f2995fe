// Package main provides tests for the QueryChat CLI.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/querychat/internal/cli"
	"github.com/leapstack-labs/querychat/internal/cli/config"
	"github.com/leapstack-labs/querychat/internal/cli/testutil"
)

func TestVersionCommand(t *testing.T) {
	config.ResetConfig()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "querychat") {
		t.Errorf("version output should contain 'querychat', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	config.ResetConfig()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"serve", "chat", "query", "history", "providers", "completion"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

// writeTestProject creates a project directory with a config file
// pointing at a seeded SQLite source.
func writeTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	dbPath := testutil.SeedSalesDB(t)
	cfg := fmt.Sprintf(`state_path: %s
sources:
  - name: sales
    driver: sqlite
    path: %s
`, filepath.Join(dir, "state.db"), dbPath)
	if err := os.WriteFile(filepath.Join(dir, "querychat.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir
}

func TestQueryCommand(t *testing.T) {
	dir := writeTestProject(t)
	t.Chdir(dir)
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"query", "SELECT month, revenue FROM sales ORDER BY month", "--format", "csv"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("query command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "month,revenue") {
		t.Errorf("query output should contain the CSV header, got: %s", output)
	}
	if !strings.Contains(output, `"$1,000.00"`) {
		t.Errorf("query output should contain formatted currency, got: %s", output)
	}
}

func TestQueryCommandAnalyze(t *testing.T) {
	dir := writeTestProject(t)
	t.Chdir(dir)
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"query", "SELECT month, revenue FROM sales ORDER BY month", "--analyze"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("query --analyze command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Rows: 3") {
		t.Errorf("analyze output should contain the row count, got: %s", output)
	}
	if !strings.Contains(output, "Visualization: chart (line)") {
		t.Errorf("analyze output should contain the visualization, got: %s", output)
	}
}

func TestQueryCommandRejectsWrite(t *testing.T) {
	dir := writeTestProject(t)
	t.Chdir(dir)
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"query", "DELETE FROM sales"})

	err := cmd.Execute()
	if err == nil {
		t.Error("write statement should return an error")
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			config.ResetConfig()
			cmd := cli.NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{"completion", shell})

			err := cmd.Execute()
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	config.ResetConfig()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"unknown-command"})

	err := cmd.Execute()
	if err == nil {
		t.Error("unknown command should return an error")
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
