package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/widgetsync/internal/model"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

// YAMLFormatter formats widget state as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

func (f *YAMLFormatter) encode(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// FormatInfo writes widget info as YAML.
func (f *YAMLFormatter) FormatInfo(w io.Writer, info *model.WidgetInfo) error {
	return f.encode(w, info)
}

// FormatCoordinates writes the coordinates, or null when none are stored.
func (f *YAMLFormatter) FormatCoordinates(w io.Writer, c *model.Coordinates) error {
	return f.encode(w, c)
}

// FormatSurfaces writes surfaces keyed by provider.
func (f *YAMLFormatter) FormatSurfaces(w io.Writer, surfaces map[model.Provider][]model.SurfaceID) error {
	return f.encode(w, surfaceLists(surfaces))
}

// FormatStore writes the store entries with their types.
func (f *YAMLFormatter) FormatStore(w io.Writer, name string, entries map[string]prefs.Value) error {
	return f.encode(w, struct {
		Name    string                `yaml:"name"`
		Entries map[string]storeEntry `yaml:"entries"`
	}{Name: name, Entries: storeEntries(entries)})
}

// FormatNotification writes one notification as a YAML document.
func (f *YAMLFormatter) FormatNotification(w io.Writer, n model.RefreshNotification) error {
	return f.encode(w, struct {
		ID       string  `yaml:"id"`
		Provider string  `yaml:"provider"`
		Surfaces []int32 `yaml:"surfaces"`
		IssuedAt string  `yaml:"issued_at"`
	}{
		ID:       n.ID,
		Provider: string(n.Provider),
		Surfaces: model.SurfaceInts(n.Surfaces),
		IssuedAt: n.IssuedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
