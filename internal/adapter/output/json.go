package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/widgetsync/internal/model"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

// JSONFormatter formats widget state as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatInfo writes widget info as a JSON object.
func (f *JSONFormatter) FormatInfo(w io.Writer, info *model.WidgetInfo) error {
	return f.encode(w, info)
}

// FormatCoordinates writes the coordinates, or null when none are stored.
func (f *JSONFormatter) FormatCoordinates(w io.Writer, c *model.Coordinates) error {
	return f.encode(w, c)
}

// FormatSurfaces writes surfaces keyed by provider.
func (f *JSONFormatter) FormatSurfaces(w io.Writer, surfaces map[model.Provider][]model.SurfaceID) error {
	return f.encode(w, surfaceLists(surfaces))
}

// FormatStore writes the store entries with their types.
func (f *JSONFormatter) FormatStore(w io.Writer, name string, entries map[string]prefs.Value) error {
	return f.encode(w, struct {
		Name    string                `json:"name"`
		Entries map[string]storeEntry `json:"entries"`
	}{Name: name, Entries: storeEntries(entries)})
}

// FormatNotification writes one notification as a single JSON line.
func (f *JSONFormatter) FormatNotification(w io.Writer, n model.RefreshNotification) error {
	return json.NewEncoder(w).Encode(n)
}
