// Package config provides configuration management for the querychat CLI.
//
// Configuration is layered: built-in defaults, then querychat.yaml, then
// QUERYCHAT_* environment variables, then command-line flags.
package config

import (
	"github.com/leapstack-labs/querychat/internal/source"
)

// Default configuration values.
const (
	DefaultStateFile   = ".querychat/state.db"
	DefaultPresetsFile = "providers.yaml"
	DefaultEnv         = "dev"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultUIPort      = 8765
	DefaultOllamaHost  = "http://127.0.0.1:11434"
)

// OpenAIConfig holds credentials for the OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

// OllamaConfig holds the connection settings for a local Ollama server.
type OllamaConfig struct {
	Host string `koanf:"host"`
}

// ProvidersConfig groups the AI provider settings.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `koanf:"openai"`
	Ollama OllamaConfig `koanf:"ollama"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int    `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`
	AutoOpen      bool   `koanf:"auto_open"`
	Dev           bool   `koanf:"dev"`
}

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string          `koanf:"state_path"`
	PresetsPath  string          `koanf:"presets_path"`
	Verbose      bool            `koanf:"verbose"`
	OutputFormat string          `koanf:"output"`
	Sources      []source.Config `koanf:"sources"`
	Providers    ProvidersConfig `koanf:"providers"`
	UI           UIConfig        `koanf:"ui"`

	// ProjectRoot is the directory all relative paths resolve against.
	// It is inferred at load time, not read from the file.
	ProjectRoot string `koanf:"-"`
}

// GetUIConfig returns the UI config with defaults applied for any unset
// values.
func (c *Config) GetUIConfig() UIConfig {
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultUIPort
	}
	if ui.SessionSecret == "" {
		ui.SessionSecret = "querychat-dev-secret-change-in-production"
	}
	return ui
}
