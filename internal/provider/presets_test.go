package provider

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPresetsBuiltinsOnly(t *testing.T) {
	presets, err := LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	if len(presets) == 0 {
		t.Fatal("expected built-in presets")
	}
	if _, ok := FindPreset(presets, "local"); !ok {
		t.Error("missing built-in preset: local")
	}
}

func TestLoadPresetsMissingFileFallsBack(t *testing.T) {
	presets, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	if len(presets) != len(BuiltinPresets()) {
		t.Errorf("got %d presets, want %d", len(presets), len(BuiltinPresets()))
	}
}

func TestLoadPresetsMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `presets:
  - name: local
    provider: ollama
    model: qwen2.5-coder:14b
    temperature: 0.2
  - name: team
    provider: openai
    model: gpt-4o
    description: shared team default
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}

	local, ok := FindPreset(presets, "local")
	if !ok {
		t.Fatal("missing preset: local")
	}
	if local.Model != "qwen2.5-coder:14b" {
		t.Errorf("user override lost: model = %s", local.Model)
	}

	team, ok := FindPreset(presets, "team")
	if !ok {
		t.Fatal("missing user preset: team")
	}
	if team.Provider != "openai" {
		t.Errorf("team provider = %s", team.Provider)
	}
}

func TestLoadPresetsRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte("presets:\n  - name: broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPresets(path); err == nil {
		t.Error("expected error for preset without provider/model")
	}
}
