package dbus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/model"
)

const (
	// Interface is the widgetsync interface name.
	Interface = "io.github.jmylchreest.WidgetSync"
	// Path is the widgetsync object path.
	Path = dbus.ObjectPath("/io/github/jmylchreest/WidgetSync")
	// DefaultBusName is the bus name claimed by the daemon.
	DefaultBusName = "io.github.jmylchreest.WidgetSync"
	// ErrorPrefix prefixes the D-Bus error name of every rejected operation.
	ErrorPrefix = Interface + ".Error."
	// SignalRefresh is the member name of the refresh signal.
	SignalRefresh = "Refresh"
	// ErrorFailed is used for failures that carry no operation code.
	ErrorFailed = "FAILED"
)

// Widget info dictionary keys.
const (
	InfoHasCoordinates = "hasCoordinates"
	InfoLastUpdate     = "lastUpdate"
	InfoTheme          = "theme"
	InfoIsActive       = "isActive"
	InfoWidgetCount    = "widgetCount"
)

// infoToVariants encodes widget info as an a{sv} dictionary.
// The theme key is omitted when no theme is stored.
func infoToVariants(info *model.WidgetInfo) map[string]dbus.Variant {
	out := map[string]dbus.Variant{
		InfoHasCoordinates: dbus.MakeVariant(info.HasCoordinates),
		InfoLastUpdate:     dbus.MakeVariant(float64(info.LastUpdate)),
		InfoIsActive:       dbus.MakeVariant(info.IsActive),
		InfoWidgetCount:    dbus.MakeVariant(int32(info.WidgetCount)),
	}
	if info.Theme != nil {
		out[InfoTheme] = dbus.MakeVariant(*info.Theme)
	}
	return out
}

// infoFromVariants decodes the a{sv} dictionary returned by GetWidgetInfo.
func infoFromVariants(m map[string]dbus.Variant) (*model.WidgetInfo, error) {
	info := &model.WidgetInfo{}

	if v, ok := m[InfoHasCoordinates]; ok {
		b, ok := v.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("invalid %s type %s", InfoHasCoordinates, v.Signature())
		}
		info.HasCoordinates = b
	}
	if v, ok := m[InfoLastUpdate]; ok {
		d, ok := v.Value().(float64)
		if !ok {
			return nil, fmt.Errorf("invalid %s type %s", InfoLastUpdate, v.Signature())
		}
		info.LastUpdate = int64(d)
	}
	if v, ok := m[InfoTheme]; ok {
		s, ok := v.Value().(string)
		if !ok {
			return nil, fmt.Errorf("invalid %s type %s", InfoTheme, v.Signature())
		}
		info.Theme = &s
	}
	if v, ok := m[InfoIsActive]; ok {
		b, ok := v.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("invalid %s type %s", InfoIsActive, v.Signature())
		}
		info.IsActive = b
	}
	if v, ok := m[InfoWidgetCount]; ok {
		n, ok := v.Value().(int32)
		if !ok {
			return nil, fmt.Errorf("invalid %s type %s", InfoWidgetCount, v.Signature())
		}
		info.WidgetCount = int(n)
	}
	return info, nil
}

// toDBusError converts an operation failure into a D-Bus error reply.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	var opErr *bridge.OpError
	if errors.As(err, &opErr) {
		return dbus.NewError(ErrorPrefix+opErr.Code, []interface{}{opErr.Err.Error()})
	}
	return dbus.NewError(ErrorPrefix+ErrorFailed, []interface{}{err.Error()})
}

// fromDBusError converts a widgetsync D-Bus error reply back into a *bridge.OpError.
// Other errors are returned unchanged.
func fromDBusError(op string, err error) error {
	if err == nil {
		return nil
	}

	var name, msg string
	var valErr dbus.Error
	var ptrErr *dbus.Error
	switch {
	case errors.As(err, &valErr):
		name, msg = valErr.Name, valErr.Error()
	case errors.As(err, &ptrErr):
		name, msg = ptrErr.Name, ptrErr.Error()
	default:
		return err
	}

	code, ok := strings.CutPrefix(name, ErrorPrefix)
	if !ok || code == ErrorFailed {
		return err
	}
	return &bridge.OpError{Code: code, Op: op, Err: errors.New(msg)}
}

// notificationFromSignal decodes a Refresh signal.
func notificationFromSignal(sig *dbus.Signal) (model.RefreshNotification, error) {
	var n model.RefreshNotification
	if sig.Name != Interface+"."+SignalRefresh {
		return n, fmt.Errorf("unexpected signal %s", sig.Name)
	}
	if len(sig.Body) < 3 {
		return n, fmt.Errorf("malformed %s signal: %d arguments", SignalRefresh, len(sig.Body))
	}

	provider, ok := sig.Body[0].(string)
	if !ok {
		return n, errors.New("invalid provider type")
	}
	surfaces, ok := sig.Body[1].([]int32)
	if !ok {
		return n, errors.New("invalid surfaces type")
	}
	id, ok := sig.Body[2].(string)
	if !ok {
		return n, errors.New("invalid id type")
	}

	n.ID = id
	n.Provider = model.Provider(provider)
	n.Surfaces = model.SurfacesFromInts(surfaces)
	n.IssuedAt = issuedAt(id)
	return n, nil
}

// issuedAt recovers the issue time embedded in a notification ID.
func issuedAt(id string) time.Time {
	u, err := ulid.Parse(id)
	if err != nil {
		return time.Now()
	}
	return ulid.Time(u.Time())
}
