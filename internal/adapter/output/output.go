// Package output provides output formatters for widget state.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jmylchreest/widgetsync/internal/model"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

// Formatter formats widget state for output.
type Formatter interface {
	FormatInfo(w io.Writer, info *model.WidgetInfo) error
	// FormatCoordinates writes the coordinates; c is nil when none are stored.
	FormatCoordinates(w io.Writer, c *model.Coordinates) error
	FormatSurfaces(w io.Writer, surfaces map[model.Provider][]model.SurfaceID) error
	FormatStore(w io.Writer, name string, entries map[string]prefs.Value) error
	FormatNotification(w io.Writer, n model.RefreshNotification) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// FormatTypes returns the supported format names.
func FormatTypes() []string {
	return []string{string(FormatPlain), string(FormatJSON), string(FormatYAML)}
}

// ParseFormatType validates a format name.
func ParseFormatType(name string) (FormatType, error) {
	switch f := FormatType(strings.ToLower(name)); f {
	case FormatPlain, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q, must be one of: %s", name, strings.Join(FormatTypes(), ", "))
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template string           // Custom template for plain widget info
	Color    bool             // Style plain output with lipgloss
	Now      func() time.Time // Reference time for relative timestamps (default time.Now)
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		Color: true,
		Now:   time.Now,
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// sortedProviders returns the providers of m in their canonical order,
// followed by any unknown providers sorted by name.
func sortedProviders(m map[model.Provider][]model.SurfaceID) []model.Provider {
	var out []model.Provider
	seen := make(map[model.Provider]bool)
	for _, p := range model.Providers() {
		if _, ok := m[p]; ok {
			out = append(out, p)
			seen[p] = true
		}
	}
	var extra []model.Provider
	for p := range m {
		if !seen[p] {
			extra = append(extra, p)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// storeEntry is the structured form of one store entry.
type storeEntry struct {
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

func storeEntries(entries map[string]prefs.Value) map[string]storeEntry {
	out := make(map[string]storeEntry, len(entries))
	for k, v := range entries {
		out[k] = storeEntry{Type: v.Kind().String(), Value: v.Interface()}
	}
	return out
}

// surfaceLists converts surfaces to plain ints keyed by provider name.
func surfaceLists(surfaces map[model.Provider][]model.SurfaceID) map[string][]int32 {
	out := make(map[string][]int32, len(surfaces))
	for p, ids := range surfaces {
		out[string(p)] = model.SurfaceInts(ids)
	}
	return out
}
