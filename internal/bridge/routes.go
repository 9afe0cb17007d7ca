package bridge

import "github.com/jmylchreest/widgetsync/internal/model"

// Routes decides which providers each operation notifies.
type Routes struct {
	Coordinates []model.Provider
	Data        []model.Provider
	Theme       []model.Provider
	Refresh     model.Provider // ForceRefresh
	Probe       model.Provider // IsWidgetActive and GetWidgetInfo
}

// DefaultRoutes notifies every provider after a write and probes the standard provider.
func DefaultRoutes() Routes {
	return Routes{
		Coordinates: model.Providers(),
		Data:        model.Providers(),
		Theme:       model.Providers(),
		Refresh:     model.ProviderStandard,
		Probe:       model.ProviderStandard,
	}
}

// WithDefaults fills every unset route from DefaultRoutes. A nil provider
// list is unset; an empty non-nil list notifies nobody.
func (r Routes) WithDefaults() Routes {
	def := DefaultRoutes()
	if r.Coordinates == nil {
		r.Coordinates = def.Coordinates
	}
	if r.Data == nil {
		r.Data = def.Data
	}
	if r.Theme == nil {
		r.Theme = def.Theme
	}
	if r.Refresh == "" {
		r.Refresh = def.Refresh
	}
	if r.Probe == "" {
		r.Probe = def.Probe
	}
	return r
}
