// Package dbus exposes widgetsync on the D-Bus session bus.
//
// Service serves the synchronization operations as methods on
// io.github.jmylchreest.WidgetSync, and Client calls them from another
// process. Emitter broadcasts refresh notifications as the Refresh signal,
// which widget renderers receive through a Listener.
package dbus
