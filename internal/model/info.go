package model

// WidgetInfo summarises what the widgets will find in storage and how many are placed.
type WidgetInfo struct {
	HasCoordinates bool    `json:"hasCoordinates" yaml:"hasCoordinates"`
	LastUpdate     int64   `json:"lastUpdate" yaml:"lastUpdate"` // Unix milliseconds, 0 = never
	Theme          *string `json:"theme" yaml:"theme"`           // nil when no theme was saved
	IsActive       bool    `json:"isActive" yaml:"isActive"`
	WidgetCount    int     `json:"widgetCount" yaml:"widgetCount"`
}

// Coordinates holds a latitude/longitude pair exactly as stored.
// Values are not parsed or validated.
type Coordinates struct {
	Lat string `json:"lat" yaml:"lat"`
	Lng string `json:"lng" yaml:"lng"`
}
