// Package bridge hands state from the application over to its widgets.
//
// Every operation persists facts into the named stores the widget renderers
// read, then asks the affected providers to redraw. Operations either return
// their result or a *OpError carrying a stable error code.
package bridge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/jmylchreest/widgetsync/internal/broadcast"
	"github.com/jmylchreest/widgetsync/internal/model"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

// Notifier asks a provider's surfaces to redraw.
// broadcast.Broadcaster satisfies it.
type Notifier interface {
	Notify(p model.Provider) (bool, error)
}

// API is the set of operations exposed to the application.
// Bridge implements it locally and the D-Bus client implements it remotely.
type API interface {
	SaveCoordinates(lat, lng float64) (bool, error)
	UpdateWidgetData(data string) (bool, error)
	UpdateTheme(theme string) (bool, error)
	ForceRefresh() (bool, error)
	ForceRefreshAll() (bool, error)
	IsWidgetActive() bool
	GetWidgetInfo() (*model.WidgetInfo, error)
	ClearWidgetData() (bool, error)
	GetCoordinates() (*model.Coordinates, error)
}

// Options configures a Bridge. Unset routes come from DefaultRoutes. The
// zero value also means best-effort writes, the real clock and the default logger.
type Options struct {
	Routes Routes
	Policy Policy
	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Bridge is the synchronization facade.
type Bridge struct {
	stores    Stores
	inventory broadcast.Inventory
	notifier  Notifier
	writer    *FactWriter
	routes    Routes
	clock     clockwork.Clock
	logger    *slog.Logger
}

var _ API = (*Bridge)(nil)

// New creates a Bridge.
func New(stores Stores, inventory broadcast.Inventory, notifier Notifier, opts Options) *Bridge {
	opts.Routes = opts.Routes.WithDefaults()
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Bridge{
		stores:    stores,
		inventory: inventory,
		notifier:  notifier,
		writer:    NewFactWriter(stores, opts.Policy),
		routes:    opts.Routes,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}
}

// Routes returns the provider routing in use.
func (b *Bridge) Routes() Routes {
	return b.routes
}

func (b *Bridge) nowMillis() int64 {
	return b.clock.Now().UnixMilli()
}

// SaveCoordinates stores the coordinates as decimal strings in every store a
// renderer may read them from, stamps the update time and refreshes the widgets.
func (b *Bridge) SaveCoordinates(lat, lng float64) (bool, error) {
	const op = "saveCoordinates"

	latStr, lngStr := FormatDecimal(lat), FormatDecimal(lng)
	err := b.writeAndNotify(CoordinatesFact(latStr, lngStr, b.nowMillis()), b.routes.Coordinates)
	if err != nil {
		return false, opError(CodeSaveCoordinates, op, err)
	}
	b.logger.Debug("coordinates saved", "lat", latStr, "lng", lngStr)
	return true, nil
}

// UpdateWidgetData stores the serialized data payload verbatim.
func (b *Bridge) UpdateWidgetData(data string) (bool, error) {
	const op = "updateWidgetData"

	if err := b.writeAndNotify(WidgetDataFact(data, b.nowMillis()), b.routes.Data); err != nil {
		return false, opError(CodeUpdateWidgetData, op, err)
	}
	b.logger.Debug("widget data updated", "bytes", len(data))
	return true, nil
}

// UpdateTheme stores the serialized theme verbatim.
func (b *Bridge) UpdateTheme(theme string) (bool, error) {
	const op = "updateTheme"

	if err := b.writeAndNotify(ThemeFact(theme), b.routes.Theme); err != nil {
		return false, opError(CodeUpdateTheme, op, err)
	}
	b.logger.Debug("theme updated", "bytes", len(theme))
	return true, nil
}

// ForceRefresh asks the refresh provider to redraw without writing anything.
func (b *Bridge) ForceRefresh() (bool, error) {
	if _, err := b.notify([]model.Provider{b.routes.Refresh}); err != nil {
		return false, opError(CodeForceRefresh, "forceRefresh", err)
	}
	return true, nil
}

// ForceRefreshAll asks every known provider to redraw. All providers are
// attempted even when one fails.
func (b *Bridge) ForceRefreshAll() (bool, error) {
	if _, err := b.notify(model.Providers()); err != nil {
		return false, opError(CodeForceRefreshAll, "forceRefreshAll", err)
	}
	return true, nil
}

// IsWidgetActive reports whether at least one probe-provider surface is placed.
// It never fails: any error reads as inactive.
func (b *Bridge) IsWidgetActive() (active bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("widget activity probe panicked", "panic", r)
			active = false
		}
	}()

	surfaces, err := b.inventory.ActiveSurfaces(b.routes.Probe)
	if err != nil {
		b.logger.Debug("widget activity probe failed", "provider", b.routes.Probe, "error", err)
		return false
	}
	return len(surfaces) > 0
}

// GetWidgetInfo summarises the stored facts and the probe provider's placement.
func (b *Bridge) GetWidgetInfo() (*model.WidgetInfo, error) {
	const op = "getWidgetInfo"

	_, hasLat, err := b.stores.Get(prefs.StorePrayer, prefs.KeyLat)
	if err != nil {
		return nil, opError(CodeGetWidgetInfo, op, err)
	}
	_, hasLng, err := b.stores.Get(prefs.StorePrayer, prefs.KeyLng)
	if err != nil {
		return nil, opError(CodeGetWidgetInfo, op, err)
	}

	info := &model.WidgetInfo{HasCoordinates: hasLat && hasLng}

	if v, ok, err := b.stores.Get(prefs.StorePrayer, prefs.KeyDataUpdated); err != nil {
		return nil, opError(CodeGetWidgetInfo, op, err)
	} else if ms, isInt := v.AsInt64(); ok && isInt {
		info.LastUpdate = ms
	}

	if v, ok, err := b.stores.Get(prefs.StorePrayer, prefs.KeyTheme); err != nil {
		return nil, opError(CodeGetWidgetInfo, op, err)
	} else if theme, isString := v.AsString(); ok && isString {
		info.Theme = &theme
	}

	surfaces, err := b.inventory.ActiveSurfaces(b.routes.Probe)
	if err != nil {
		return nil, opError(CodeGetWidgetInfo, op, err)
	}
	info.IsActive = len(surfaces) > 0
	info.WidgetCount = len(surfaces)

	return info, nil
}

// ClearWidgetData removes every key from the primary widget store.
// Redundant coordinate copies in the other stores are kept.
func (b *Bridge) ClearWidgetData() (bool, error) {
	if err := b.stores.Clear(prefs.StorePrayer); err != nil {
		return false, opError(CodeClearWidgetData, "clearWidgetData", err)
	}
	b.logger.Debug("widget data cleared", "store", prefs.StorePrayer)
	return true, nil
}

// GetCoordinates returns the coordinates from the primary widget store,
// or nil when either of them is missing.
func (b *Bridge) GetCoordinates() (*model.Coordinates, error) {
	const op = "getCoordinates"

	lat, hasLat, err := b.getString(prefs.StorePrayer, prefs.KeyLat)
	if err != nil {
		return nil, opError(CodeGetCoordinates, op, err)
	}
	lng, hasLng, err := b.getString(prefs.StorePrayer, prefs.KeyLng)
	if err != nil {
		return nil, opError(CodeGetCoordinates, op, err)
	}
	if !hasLat || !hasLng {
		return nil, nil
	}
	return &model.Coordinates{Lat: lat, Lng: lng}, nil
}

func (b *Bridge) getString(store, key string) (string, bool, error) {
	v, ok, err := b.stores.Get(store, key)
	if err != nil || !ok {
		return "", false, err
	}
	s, isString := v.AsString()
	return s, isString, nil
}

// writeAndNotify persists a fact and notifies the routed providers.
// Under best-effort a partial write still notifies, since some copies changed.
func (b *Bridge) writeAndNotify(f Fact, providers []model.Provider) error {
	writeErr := b.writer.Write(f)
	if writeErr != nil && b.writer.policy == PolicyAllOrNothing {
		return writeErr
	}
	_, notifyErr := b.notify(providers)
	return errors.Join(writeErr, notifyErr)
}

// notify broadcasts to each provider in turn and returns how many dispatched.
func (b *Bridge) notify(providers []model.Provider) (int, error) {
	var (
		sent int
		errs []error
	)
	for _, p := range providers {
		ok, err := b.notifier.Notify(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", p, err))
			continue
		}
		if ok {
			sent++
		}
	}
	b.logger.Debug("providers notified", "providers", len(providers), "dispatched", sent)
	return sent, errors.Join(errs...)
}
