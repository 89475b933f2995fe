package provider

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Preset is a named provider/model pairing with generation settings.
// Presets let users switch models without remembering exact tags.
type Preset struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Description string  `yaml:"description,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// BuiltinPresets returns the curated default catalog. Local Ollama tags
// first since they need no credentials.
func BuiltinPresets() []Preset {
	return []Preset{
		{
			Name:        "local",
			Provider:    "ollama",
			Model:       "llama3.2",
			Description: "Local Llama via Ollama, no API key required",
			Temperature: 0.1,
		},
		{
			Name:        "local-large",
			Provider:    "ollama",
			Model:       "llama3.1:70b-instruct",
			Description: "Larger local model for harder questions",
			Temperature: 0.1,
		},
		{
			Name:        "fast",
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Description: "Hosted, cheap and quick",
			Temperature: 0.1,
		},
		{
			Name:        "accurate",
			Provider:    "openai",
			Model:       "gpt-4o",
			Description: "Hosted, best SQL quality",
			Temperature: 0,
		},
	}
}

type presetsFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets reads user presets from a YAML file and merges them over
// the built-in catalog. User presets with the same name win. A missing
// file yields just the built-ins.
func LoadPresets(path string) ([]Preset, error) {
	merged := map[string]Preset{}
	order := []string{}
	for _, p := range BuiltinPresets() {
		merged[p.Name] = p
		order = append(order, p.Name)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return presetsInOrder(merged, order), nil
			}
			return nil, fmt.Errorf("failed to read presets file: %w", err)
		}

		var file presetsFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse presets file: %w", err)
		}
		for _, p := range file.Presets {
			if p.Name == "" || p.Provider == "" || p.Model == "" {
				return nil, fmt.Errorf("preset %q must set name, provider and model", p.Name)
			}
			if _, exists := merged[p.Name]; !exists {
				order = append(order, p.Name)
			}
			merged[p.Name] = p
		}
	}

	return presetsInOrder(merged, order), nil
}

func presetsInOrder(merged map[string]Preset, order []string) []Preset {
	out := make([]Preset, 0, len(order))
	for _, name := range order {
		out = append(out, merged[name])
	}
	return out
}

// FindPreset returns the preset with the given name.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetNames returns the preset names, sorted.
func PresetNames(presets []Preset) []string {
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
