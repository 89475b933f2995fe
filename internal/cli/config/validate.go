package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/querychat/internal/source"
)

// Validate checks if the configuration is valid. Source connectivity is
// not checked here; commands that open sources report those errors with
// full context.
func Validate(c *Config) error {
	known := source.DriverNames()
	seen := make(map[string]bool, len(c.Sources))
	for _, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source name is required")
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true

		if !slices.Contains(known, src.Driver) {
			return fmt.Errorf("source %q: unknown driver %q (available: %v)", src.Name, src.Driver, known)
		}
	}

	if c.UI.Port < 0 || c.UI.Port > 65535 {
		return fmt.Errorf("ui.port %d out of range", c.UI.Port)
	}

	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q (use auto, text, markdown or json)", c.OutputFormat)
	}

	return nil
}
