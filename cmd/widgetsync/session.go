package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/broadcast"
	"github.com/jmylchreest/widgetsync/internal/config"
	"github.com/jmylchreest/widgetsync/internal/daemon"
	"github.com/jmylchreest/widgetsync/internal/dbus"
	"github.com/jmylchreest/widgetsync/internal/host"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

// session bundles what a command needs to reach widget state.
// The stores and inventory are always local; api may be remote.
type session struct {
	api       bridge.API
	accessor  *prefs.Accessor
	inventory *host.FileInventory
}

// openSession wires the local stores and inventory, and either a local
// bridge or a D-Bus client for the facade operations.
func openSession(cfg *config.Config, remote bool, logger *slog.Logger) (*session, error) {
	accessor, err := prefs.NewAccessor(cfg.PrefsDir(), logger)
	if err != nil {
		return nil, err
	}
	accessor.SetFlushDelay(cfg.Storage.FlushDelay.Duration())

	s := &session{
		accessor:  accessor,
		inventory: host.NewFileInventory(cfg.InventoryPath()),
	}

	if remote {
		client, err := dbus.NewClient(cfg.Bus.Name, 0, logger)
		if err != nil {
			_ = accessor.Close()
			return nil, err
		}
		s.api = client
		return s, nil
	}

	api, err := newLocalBridge(cfg, accessor, s.inventory, logger)
	if err != nil {
		_ = accessor.Close()
		return nil, err
	}
	s.api = api
	return s, nil
}

// newLocalBridge builds a Bridge over the given stores. Refreshes are logged,
// and emitted on the session bus when it is enabled and reachable.
func newLocalBridge(cfg *config.Config, stores bridge.Stores, inventory broadcast.Inventory, logger *slog.Logger) (*bridge.Bridge, error) {
	dispatchers := broadcast.MultiDispatcher{broadcast.NewLogDispatcher(logger)}
	if cfg.Bus.Enabled {
		emitter, err := dbus.NewSessionEmitter(logger)
		if err != nil {
			logger.Warn("session bus unavailable, refreshes will only be logged", "error", err)
		} else {
			dispatchers = append(dispatchers, emitter)
		}
	}
	return daemon.NewBridge(cfg, stores, inventory, dispatchers, logger)
}

// Close flushes pending store writes.
func (s *session) Close() error {
	if err := s.accessor.Close(); err != nil && !errors.Is(err, prefs.ErrClosed) {
		return fmt.Errorf("failed to flush stores: %w", err)
	}
	return nil
}
