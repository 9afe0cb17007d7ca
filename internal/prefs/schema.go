package prefs

// Store names read by the widget renderers. These names, and the keys below,
// are a fixed contract with every external reader.
const (
	StorePrayer      = "prayer_prefs"
	StoreLocation    = "location_prefs"
	StoreAppLocation = "app_location"
)

// Keys used in the named stores.
const (
	KeyLat                = "lat"
	KeyLng                = "lng"
	KeyCurrentLat         = "current_lat"
	KeyCurrentLng         = "current_lng"
	KeyWidgetData         = "widget_data"
	KeyTheme              = "theme"
	KeyCoordinatesUpdated = "coordinates_updated"
	KeyDataUpdated        = "data_updated"
)

// SchemaVersion is the current version of the store file format.
const SchemaVersion = 1
