package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/querychat/internal/provider"
)

// generatePresetDocs generates the provider preset reference from the
// builtin catalog.
func generatePresetDocs(outDir string) error {
	log.Printf("Generating preset docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()

	w.Frontmatter("Provider Presets", "Builtin AI provider presets")
	w.GeneratedMarker()

	w.Header(1, "Provider Presets")
	w.Paragraph("A preset names a provider and model pairing. Pick one with `querychat chat --preset <name>` or the `.preset` command in the REPL. These presets ship with QueryChat; add your own in `providers.yaml`.")

	headers := []string{"Preset", "Provider", "Model", "Temperature", "Description"}
	var rows [][]string
	for _, p := range provider.BuiltinPresets() {
		rows = append(rows, []string{
			InlineCode(p.Name),
			p.Provider,
			InlineCode(p.Model),
			strconv.FormatFloat(p.Temperature, 'g', -1, 64),
			cleanDescription(p.Description),
		})
	}
	w.Table(headers, rows)

	w.Header(2, "Custom Presets")
	w.Paragraph("Entries in `providers.yaml` are merged over the builtin catalog. An entry with the same name replaces the builtin:")
	w.CodeBlock("yaml", `presets:
  - name: local
    provider: ollama
    model: qwen2.5-coder:14b
    description: Stronger local SQL generation
    temperature: 0.1

  - name: fast
    provider: openai
    model: gpt-4o-mini
    temperature: 0.2
    max_tokens: 2048`)

	w.Paragraph("The file is watched while `querychat serve` runs, so edits show up without a restart.")

	filename := filepath.Join(outDir, "presets.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated presets.md")
	return nil
}
