package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/model"
)

// DefaultCallTimeout bounds each remote call.
const DefaultCallTimeout = 5 * time.Second

// Client calls a running widgetsync service over D-Bus.
type Client struct {
	obj     dbus.BusObject
	timeout time.Duration
	logger  *slog.Logger
}

var _ bridge.API = (*Client)(nil)

// NewClient connects to the session bus and targets the service at busName.
func NewClient(busName string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if busName == "" {
		busName = DefaultBusName
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		obj:     conn.Object(busName, Path),
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (c *Client) call(method string, args ...interface{}) *dbus.Call {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	c.logger.Debug("calling remote method", "method", method)
	return c.obj.CallWithContext(ctx, Interface+"."+method, 0, args...)
}

func (c *Client) callBool(op, method string, args ...interface{}) (bool, error) {
	var ok bool
	if err := c.call(method, args...).Store(&ok); err != nil {
		return false, fromDBusError(op, err)
	}
	return ok, nil
}

// SaveCoordinates calls SaveCoordinates on the service.
func (c *Client) SaveCoordinates(lat, lng float64) (bool, error) {
	return c.callBool("saveCoordinates", "SaveCoordinates", lat, lng)
}

// UpdateWidgetData calls UpdateWidgetData on the service.
func (c *Client) UpdateWidgetData(data string) (bool, error) {
	return c.callBool("updateWidgetData", "UpdateWidgetData", data)
}

// UpdateTheme calls UpdateTheme on the service.
func (c *Client) UpdateTheme(theme string) (bool, error) {
	return c.callBool("updateTheme", "UpdateTheme", theme)
}

// ForceRefresh calls ForceRefresh on the service.
func (c *Client) ForceRefresh() (bool, error) {
	return c.callBool("forceRefresh", "ForceRefresh")
}

// ForceRefreshAll calls ForceRefreshAll on the service.
func (c *Client) ForceRefreshAll() (bool, error) {
	return c.callBool("forceRefreshAll", "ForceRefreshAll")
}

// IsWidgetActive calls IsWidgetActive on the service.
// An unreachable service reads as inactive.
func (c *Client) IsWidgetActive() bool {
	active, err := c.callBool("isWidgetActive", "IsWidgetActive")
	if err != nil {
		c.logger.Debug("remote activity probe failed", "error", err)
		return false
	}
	return active
}

// GetWidgetInfo calls GetWidgetInfo on the service.
func (c *Client) GetWidgetInfo() (*model.WidgetInfo, error) {
	var m map[string]dbus.Variant
	if err := c.call("GetWidgetInfo").Store(&m); err != nil {
		return nil, fromDBusError("getWidgetInfo", err)
	}
	return infoFromVariants(m)
}

// ClearWidgetData calls ClearWidgetData on the service.
func (c *Client) ClearWidgetData() (bool, error) {
	return c.callBool("clearWidgetData", "ClearWidgetData")
}

// GetCoordinates calls GetCoordinates on the service.
func (c *Client) GetCoordinates() (*model.Coordinates, error) {
	var (
		found    bool
		lat, lng string
	)
	if err := c.call("GetCoordinates").Store(&found, &lat, &lng); err != nil {
		return nil, fromDBusError("getCoordinates", err)
	}
	if !found {
		return nil, nil
	}
	return &model.Coordinates{Lat: lat, Lng: lng}, nil
}
