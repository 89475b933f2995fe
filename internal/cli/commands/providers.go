package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querychat/internal/provider"
)

// NewProvidersCommand creates the providers command.
func NewProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List provider presets",
		Long: `List the available provider presets.

Presets come from the built-in catalog merged with the presets file
(providers.yaml by default). A preset names a provider, a model, and
generation settings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutStores(cmd)

			presets, err := provider.LoadPresets(cmdCtx.Cfg.PresetsPath)
			if err != nil {
				return err
			}

			registered := buildProviderRegistry(cmdCtx.Cfg)
			available := make(map[string]bool)
			for _, name := range registered.Names() {
				available[name] = true
			}

			rows := make([][]string, 0, len(presets))
			for _, p := range presets {
				status := "needs credentials"
				if available[p.Provider] {
					status = "configured"
				}
				rows = append(rows, []string{p.Name, p.Provider, p.Model, p.Description, status})
			}
			return cmdCtx.Renderer.Table([]string{"preset", "provider", "model", "description", "status"}, rows)
		},
	}
}
