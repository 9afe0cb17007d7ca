package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/widgetsync/internal/bridge"
)

// Service serves the synchronization operations over D-Bus.
// Every exported method returning *dbus.Error is a D-Bus method.
type Service struct {
	api     bridge.API
	busName string
	conn    *dbus.Conn
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewService creates a Service for api. An empty busName uses DefaultBusName.
func NewService(api bridge.API, busName string, logger *slog.Logger) *Service {
	if busName == "" {
		busName = DefaultBusName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:     api,
		busName: busName,
		logger:  logger,
	}
}

// Start connects to the session bus, exports the service and claims the bus name.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("service already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	if err := s.export(conn); err != nil {
		return err
	}

	reply, err := conn.RequestName(s.busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", s.busName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus service started", "name", s.busName, "path", Path)
	return nil
}

func (s *Service) export(conn *dbus.Conn) error {
	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: serviceMethods(),
				Signals: serviceSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}
	return nil
}

// Stop releases the bus name and unexports the object.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(s.busName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	_ = s.conn.Export(nil, Path, Interface)
	_ = s.conn.Export(nil, Path, "org.freedesktop.DBus.Introspectable")
	// Don't close the connection as it's shared (SessionBus)

	s.logger.Info("D-Bus service stopped")
	return nil
}

// Connection returns the session bus connection once started.
func (s *Service) Connection() *dbus.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// SaveCoordinates handles SaveCoordinates(dd) -> b.
func (s *Service) SaveCoordinates(lat, lng float64) (bool, *dbus.Error) {
	s.logger.Debug("SaveCoordinates called", "lat", lat, "lng", lng)
	ok, err := s.api.SaveCoordinates(lat, lng)
	return ok, s.reply("SaveCoordinates", err)
}

// UpdateWidgetData handles UpdateWidgetData(s) -> b.
func (s *Service) UpdateWidgetData(data string) (bool, *dbus.Error) {
	s.logger.Debug("UpdateWidgetData called", "bytes", len(data))
	ok, err := s.api.UpdateWidgetData(data)
	return ok, s.reply("UpdateWidgetData", err)
}

// UpdateTheme handles UpdateTheme(s) -> b.
func (s *Service) UpdateTheme(theme string) (bool, *dbus.Error) {
	s.logger.Debug("UpdateTheme called", "bytes", len(theme))
	ok, err := s.api.UpdateTheme(theme)
	return ok, s.reply("UpdateTheme", err)
}

// ForceRefresh handles ForceRefresh() -> b.
func (s *Service) ForceRefresh() (bool, *dbus.Error) {
	ok, err := s.api.ForceRefresh()
	return ok, s.reply("ForceRefresh", err)
}

// ForceRefreshAll handles ForceRefreshAll() -> b.
func (s *Service) ForceRefreshAll() (bool, *dbus.Error) {
	ok, err := s.api.ForceRefreshAll()
	return ok, s.reply("ForceRefreshAll", err)
}

// IsWidgetActive handles IsWidgetActive() -> b. It never returns an error.
func (s *Service) IsWidgetActive() (bool, *dbus.Error) {
	return s.api.IsWidgetActive(), nil
}

// GetWidgetInfo handles GetWidgetInfo() -> a{sv}.
func (s *Service) GetWidgetInfo() (map[string]dbus.Variant, *dbus.Error) {
	info, err := s.api.GetWidgetInfo()
	if err != nil {
		return nil, s.reply("GetWidgetInfo", err)
	}
	return infoToVariants(info), nil
}

// ClearWidgetData handles ClearWidgetData() -> b.
func (s *Service) ClearWidgetData() (bool, *dbus.Error) {
	ok, err := s.api.ClearWidgetData()
	return ok, s.reply("ClearWidgetData", err)
}

// GetCoordinates handles GetCoordinates() -> (bss).
func (s *Service) GetCoordinates() (bool, string, string, *dbus.Error) {
	coords, err := s.api.GetCoordinates()
	if err != nil {
		return false, "", "", s.reply("GetCoordinates", err)
	}
	if coords == nil {
		return false, "", "", nil
	}
	return true, coords.Lat, coords.Lng, nil
}

func (s *Service) reply(method string, err error) *dbus.Error {
	if err == nil {
		return nil
	}
	dbusErr := toDBusError(err)
	s.logger.Warn("operation failed", "method", method, "error", dbusErr.Name, "message", err)
	return dbusErr
}

// serviceMethods returns the D-Bus method introspection data.
func serviceMethods() []introspect.Method {
	ok := introspect.Arg{Name: "ok", Type: "b", Direction: "out"}
	return []introspect.Method{
		{
			Name: "SaveCoordinates",
			Args: []introspect.Arg{
				{Name: "lat", Type: "d", Direction: "in"},
				{Name: "lng", Type: "d", Direction: "in"},
				ok,
			},
		},
		{
			Name: "UpdateWidgetData",
			Args: []introspect.Arg{{Name: "data", Type: "s", Direction: "in"}, ok},
		},
		{
			Name: "UpdateTheme",
			Args: []introspect.Arg{{Name: "theme", Type: "s", Direction: "in"}, ok},
		},
		{Name: "ForceRefresh", Args: []introspect.Arg{ok}},
		{Name: "ForceRefreshAll", Args: []introspect.Arg{ok}},
		{
			Name: "IsWidgetActive",
			Args: []introspect.Arg{{Name: "active", Type: "b", Direction: "out"}},
		},
		{
			Name: "GetWidgetInfo",
			Args: []introspect.Arg{{Name: "info", Type: "a{sv}", Direction: "out"}},
		},
		{Name: "ClearWidgetData", Args: []introspect.Arg{ok}},
		{
			Name: "GetCoordinates",
			Args: []introspect.Arg{
				{Name: "found", Type: "b", Direction: "out"},
				{Name: "lat", Type: "s", Direction: "out"},
				{Name: "lng", Type: "s", Direction: "out"},
			},
		},
	}
}

// serviceSignals returns the D-Bus signal introspection data.
func serviceSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: SignalRefresh,
			Args: []introspect.Arg{
				{Name: "provider", Type: "s"},
				{Name: "surfaces", Type: "ai"},
				{Name: "id", Type: "s"},
			},
		},
	}
}
