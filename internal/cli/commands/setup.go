// Package commands implements the querychat subcommands.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querychat/internal/cli/config"
	"github.com/leapstack-labs/querychat/internal/cli/output"
	"github.com/leapstack-labs/querychat/internal/provider"
	"github.com/leapstack-labs/querychat/internal/source"
	"github.com/leapstack-labs/querychat/internal/state"
)

const providerTimeout = 120 * time.Second

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Renderer  *output.Renderer
	Store     *state.SQLiteStore
	Sources   *source.Registry
	Providers *provider.Registry
	Presets   []provider.Preset
}

// NewCommandContext creates a CommandContext with the state store,
// sources and providers opened. Returns the context and a cleanup
// function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStores(cmd)
	cfg := cmdCtx.Cfg

	store, err := openStateStore(cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}

	sources, err := source.NewRegistry(cmd.Context(), cfg.Sources, cmdCtx.Logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	presets, err := provider.LoadPresets(cfg.PresetsPath)
	if err != nil {
		_ = sources.Close()
		_ = store.Close()
		return nil, nil, err
	}

	cmdCtx.Store = store
	cmdCtx.Sources = sources
	cmdCtx.Providers = buildProviderRegistry(cfg)
	cmdCtx.Presets = presets

	cleanup := func() {
		_ = sources.Close()
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStores creates a CommandContext without
// opening any database. Useful for commands that only read config.
func NewCommandContextWithoutStores(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// AskPreset resolves the preset to use for a chat turn. An empty name
// selects the first preset.
func (c *CommandContext) AskPreset(name string) (provider.Preset, error) {
	if name == "" {
		if len(c.Presets) == 0 {
			return provider.Preset{}, errNoPresets
		}
		return c.Presets[0], nil
	}
	preset, ok := provider.FindPreset(c.Presets, name)
	if !ok {
		return provider.Preset{}, fmt.Errorf("unknown preset %q (available: %v)", name, provider.PresetNames(c.Presets))
	}
	return preset, nil
}

// getConfig returns the current configuration, falling back to
// environment variables when no config has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		StatePath:    getEnvOrDefault("QUERYCHAT_STATE_PATH", config.DefaultStateFile),
		PresetsPath:  getEnvOrDefault("QUERYCHAT_PRESETS_PATH", config.DefaultPresetsFile),
		OutputFormat: os.Getenv("QUERYCHAT_OUTPUT"),
		Verbose:      os.Getenv("QUERYCHAT_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStateStore opens the chat state database, creating its directory
// and applying migrations.
func openStateStore(path string) (*state.SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// buildProviderRegistry registers the configured AI providers.
func buildProviderRegistry(cfg *config.Config) *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register(provider.NewOllamaClient(cfg.Providers.Ollama.Host, providerTimeout, provider.DefaultRetry))
	if cfg.Providers.OpenAI.APIKey != "" {
		reg.Register(provider.NewOpenAIClient(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.BaseURL, providerTimeout, provider.DefaultRetry))
	}
	return reg
}

var errNoPresets = errors.New("no provider presets configured")

// resolveSession returns the most recent session or creates one.
func resolveSession(store *state.SQLiteStore, preset provider.Preset, sourceName string) (*state.Session, error) {
	sessions, err := store.ListSessions()
	if err != nil {
		return nil, err
	}
	if len(sessions) > 0 {
		return sessions[0], nil
	}
	return store.CreateSession("New chat", preset.Provider, preset.Model, sourceName)
}
