// Package daemon provides the background jobs run by widgetsyncd.
// It keeps widgets fresh with a periodic refresh of every provider and
// refreshes again when the widget host places or removes surfaces.
package daemon
