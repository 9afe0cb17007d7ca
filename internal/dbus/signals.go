package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/widgetsync/internal/model"
)

// Emitter dispatches refresh notifications as the Refresh signal.
type Emitter struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewEmitter creates an Emitter sending on conn.
func NewEmitter(conn *dbus.Conn, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{conn: conn, logger: logger}
}

// NewSessionEmitter creates an Emitter on the shared session bus connection,
// the same connection Service.Start uses.
func NewSessionEmitter(logger *slog.Logger) (*Emitter, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return NewEmitter(conn, logger), nil
}

// Dispatch emits Refresh(s provider, ai surfaces, s id).
func (e *Emitter) Dispatch(n model.RefreshNotification) error {
	if e.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := e.conn.Emit(Path, Interface+"."+SignalRefresh,
		string(n.Provider), model.SurfaceInts(n.Surfaces), n.ID)
	if err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", SignalRefresh, err)
	}

	e.logger.Debug("emitted Refresh signal", "provider", n.Provider, "surfaces", len(n.Surfaces), "id", n.ID)
	return nil
}

// Listener receives Refresh signals on the renderer side.
type Listener struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewListener creates a Listener. A nil conn connects to the session bus on Listen.
func NewListener(conn *dbus.Conn, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{conn: conn, logger: logger}
}

// matchOptions builds the match rule for Refresh signals, optionally
// restricted to one provider.
func matchOptions(provider model.Provider) []dbus.MatchOption {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember(SignalRefresh),
	}
	if provider != "" {
		opts = append(opts, dbus.WithMatchArg(0, string(provider)))
	}
	return opts
}

// Listen delivers Refresh notifications until ctx is cancelled.
// An empty provider receives notifications for every provider.
// The returned channel is closed when listening stops.
func (l *Listener) Listen(ctx context.Context, provider model.Provider) (<-chan model.RefreshNotification, error) {
	if l.conn == nil {
		conn, err := dbus.SessionBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		l.conn = conn
	}

	opts := matchOptions(provider)
	if err := l.conn.AddMatchSignal(opts...); err != nil {
		return nil, fmt.Errorf("failed to add match rule: %w", err)
	}

	signals := make(chan *dbus.Signal, 32)
	l.conn.Signal(signals)

	out := make(chan model.RefreshNotification, 32)
	go func() {
		defer close(out)
		defer func() {
			l.conn.RemoveSignal(signals)
			if err := l.conn.RemoveMatchSignal(opts...); err != nil {
				l.logger.Debug("failed to remove match rule", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig.Path != Path || sig.Name != Interface+"."+SignalRefresh {
					continue
				}
				n, err := notificationFromSignal(sig)
				if err != nil {
					l.logger.Warn("ignoring malformed refresh signal", "error", err)
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	l.logger.Debug("listening for refresh signals", "provider", provider)
	return out, nil
}
