// Package broadcast tells widget renderers that their data changed.
package broadcast

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/jmylchreest/widgetsync/internal/model"
)

// Inventory reports the surfaces currently placed for a provider.
// The answer is a snapshot taken at call time.
type Inventory interface {
	ActiveSurfaces(p model.Provider) ([]model.SurfaceID, error)
}

// Dispatcher delivers a refresh notification to the widget host.
// Delivery is fire-and-forget: a nil error only means the notification was handed off.
type Dispatcher interface {
	Dispatch(n model.RefreshNotification) error
}

// Broadcaster asks one provider's surfaces to redraw, skipping providers with nothing placed.
type Broadcaster struct {
	inventory  Inventory
	dispatcher Dispatcher
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewBroadcaster creates a Broadcaster. A nil clock uses the real clock.
func NewBroadcaster(inventory Inventory, dispatcher Dispatcher, clock clockwork.Clock, logger *slog.Logger) *Broadcaster {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		inventory:  inventory,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
	}
}

// Notify queries the inventory for p and dispatches a refresh notification
// when at least one surface is placed. It reports whether anything was dispatched.
func (b *Broadcaster) Notify(p model.Provider) (bool, error) {
	surfaces, err := b.inventory.ActiveSurfaces(p)
	if err != nil {
		return false, fmt.Errorf("query surfaces for %s: %w", p, err)
	}
	if len(surfaces) == 0 {
		b.logger.Debug("no surfaces placed, skipping refresh", "provider", p)
		return false, nil
	}

	n := model.NewRefreshNotification(p, surfaces, b.clock.Now())
	if err := b.dispatcher.Dispatch(n); err != nil {
		return false, fmt.Errorf("dispatch refresh for %s: %w", p, err)
	}

	b.logger.Debug("refresh dispatched", "provider", p, "surfaces", len(surfaces), "id", n.ID)
	return true, nil
}

// LogDispatcher writes refresh notifications to a logger.
// Used when no message bus is available.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the notification.
func (d *LogDispatcher) Dispatch(n model.RefreshNotification) error {
	d.logger.Info("widget refresh",
		"id", n.ID,
		"provider", n.Provider,
		"surfaces", model.SurfaceInts(n.Surfaces),
	)
	return nil
}

// MultiDispatcher hands each notification to several dispatchers.
// Every dispatcher is tried; failures are joined.
type MultiDispatcher []Dispatcher

// Dispatch forwards n to every dispatcher.
func (m MultiDispatcher) Dispatch(n model.RefreshNotification) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
