// Package main is the entry point for the widgetsyncd daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/widgetsync/internal/broadcast"
	"github.com/jmylchreest/widgetsync/internal/config"
	"github.com/jmylchreest/widgetsync/internal/daemon"
	"github.com/jmylchreest/widgetsync/internal/dbus"
	"github.com/jmylchreest/widgetsync/internal/host"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var opts struct {
	verbose    bool
	configPath string
	dataDir    string
	noBus      bool
}

var rootCmd = &cobra.Command{
	Use:   "widgetsyncd",
	Short: "Serve widget state over D-Bus and keep widgets fresh",
	Long: `widgetsyncd owns the widget stores for the session. It serves the
io.github.jmylchreest.WidgetSync interface on the session bus, emits Refresh
signals to widget renderers, refreshes every provider at start-up and on a
fixed interval, and refreshes again whenever widgets are placed or removed.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.Flags().StringVar(&opts.configPath, "config", "",
		"Path to config file (default: ~/.config/widgetsync/config.toml)")
	rootCmd.Flags().StringVar(&opts.dataDir, "data-dir", "",
		"Directory holding stores and the widget inventory")
	rootCmd.Flags().BoolVar(&opts.noBus, "no-bus", false,
		"Run without the session bus (refreshes are only logged)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.dataDir != "" {
		cfg.Storage.DataDir = opts.dataDir
	}
	if opts.noBus {
		cfg.Bus.Enabled = false
	}

	logger.Info("starting widgetsyncd", "version", version, "data_dir", cfg.DataDir())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores
	accessor, err := prefs.NewAccessor(cfg.PrefsDir(), logger)
	if err != nil {
		return err
	}
	accessor.SetFlushDelay(cfg.Storage.FlushDelay.Duration())
	defer func() {
		if err := accessor.Close(); err != nil {
			logger.Warn("failed to flush stores", "error", err)
		}
	}()

	if cfg.Daemon.WatchStores {
		watcher, err := prefs.NewWatcher(accessor, logger)
		if err != nil {
			return fmt.Errorf("failed to create store watcher: %w", err)
		}
		watcher.SetReloadCallback(func(store string) {
			logger.Debug("store changed by another process", "store", store)
		})
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start store watcher: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	// Broadcast
	inventory := host.NewFileInventory(cfg.InventoryPath())
	dispatchers := broadcast.MultiDispatcher{broadcast.NewLogDispatcher(logger)}
	if cfg.Bus.Enabled {
		emitter, err := dbus.NewSessionEmitter(logger)
		if err != nil {
			return err
		}
		dispatchers = append(dispatchers, emitter)
	}

	api, err := daemon.NewBridge(cfg, accessor, inventory, dispatchers, logger)
	if err != nil {
		return err
	}

	// RPC
	if cfg.Bus.Enabled {
		service := dbus.NewService(api, cfg.Bus.Name, logger)
		if err := service.Start(); err != nil {
			return err
		}
		defer func() { _ = service.Stop() }()
	}

	// Refresh jobs
	refresher := daemon.NewRefresher(api, cfg.Daemon.RefreshInterval.Duration(), nil, logger)
	_ = refresher.RefreshNow()
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop()

	inventoryWatcher := daemon.NewInventoryWatcher(inventory.Path(), nil, logger)
	inventoryWatcher.SetChangeCallback(func() {
		logger.Info("widget inventory changed, refreshing")
		_ = refresher.RefreshNow()
	})
	if err := inventoryWatcher.Start(ctx); err != nil {
		return err
	}
	defer inventoryWatcher.Stop()

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
