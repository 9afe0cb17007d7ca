package daemon

import (
	"log/slog"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/broadcast"
	"github.com/jmylchreest/widgetsync/internal/config"
)

// NewBridge builds a Bridge over stores with the routes and write policy from cfg.
// Refresh notifications for placed widgets go to dispatcher.
func NewBridge(cfg *config.Config, stores bridge.Stores, inventory broadcast.Inventory, dispatcher broadcast.Dispatcher, logger *slog.Logger) (*bridge.Bridge, error) {
	policy, err := cfg.WritePolicy()
	if err != nil {
		return nil, err
	}
	routes, err := cfg.BridgeRoutes()
	if err != nil {
		return nil, err
	}

	notifier := broadcast.NewBroadcaster(inventory, dispatcher, nil, logger)
	return bridge.New(stores, inventory, notifier, bridge.Options{
		Routes: routes,
		Policy: policy,
		Logger: logger,
	}), nil
}
