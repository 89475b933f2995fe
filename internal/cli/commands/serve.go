package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querychat/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Dev       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the QueryChat web interface",
		Long: `Start a local web server providing the chat interface.

The UI provides:
- Natural-language chat with SQL transparency
- Automatic visualization of query results (tables, charts, maps)
- Session management
- Live query history`,
		Example: `  # Start on the default port
  querychat serve

  # Start on a custom port
  querychat serve --port 3000

  # Start without auto-opening the browser
  querychat serve --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Enable live-reload development mode")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	cfg := cmdCtx.Cfg

	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources configured: add a sources entry to %s", "querychat.yaml")
	}

	uiCfg := cfg.GetUIConfig()
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	dev := uiCfg.Dev
	if cmd.Flags().Changed("dev") {
		dev = opts.Dev
	}

	server := ui.NewServer(ui.Config{
		Store:         cmdCtx.Store,
		Sources:       cmdCtx.Sources,
		Providers:     cmdCtx.Providers,
		Presets:       cmdCtx.Presets,
		PresetsPath:   cfg.PresetsPath,
		Port:          port,
		SessionSecret: uiCfg.SessionSecret,
		Dev:           dev,
		Logger:        cmdCtx.Logger,
	})

	if uiCfg.AutoOpen && !opts.NoBrowser {
		go openBrowser(fmt.Sprintf("http://localhost:%d", port))
	}

	cmdCtx.Renderer.Printf("Starting QueryChat on http://localhost:%d\n", port)
	cmdCtx.Renderer.Printf("Press Ctrl+C to stop\n")

	return server.Serve(cmd.Context())
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
