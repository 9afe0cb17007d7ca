// Package main provides the CLI entrypoint for widgetsync.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/widgetsync/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		dataDir    string
		remote     bool
		noBus      bool
	}
	logger *slog.Logger

	// current is opened lazily by commands that need widget state
	current *session
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "widgetsync",
	Short: "Hand application state over to home-screen widgets",
	Long: `widgetsync writes the facts widgets render (coordinates, widget data,
theme) into the named stores widget renderers read, and asks every placed
widget of the affected providers to redraw.

By default commands act on the stores directly and emit Refresh signals on
the session bus. With --remote they go through a running widgetsyncd.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if globalOpts.dataDir != "" {
			cfg.Storage.DataDir = globalOpts.dataDir
		}
		if globalOpts.noBus {
			cfg.Bus.Enabled = false
		}
		if globalOpts.remote && !cfg.Bus.Enabled {
			return fmt.Errorf("--remote needs the session bus, but it is disabled")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current != nil {
			err := current.Close()
			current = nil
			return err
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/widgetsync/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.dataDir, "data-dir", "",
		"Directory holding stores and the widget inventory (default: ~/.local/share/widgetsync)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.remote, "remote", false,
		"Send operations to a running widgetsyncd over D-Bus")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.noBus, "no-bus", false,
		"Do not use the session bus (refreshes are only logged)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// getSession opens the widget state for this invocation once.
func getSession() (*session, error) {
	if current != nil {
		return current, nil
	}
	s, err := openSession(cfg, globalOpts.remote, logger)
	if err != nil {
		return nil, err
	}
	current = s
	return s, nil
}
