package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/widgetsync/internal/model"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

// PlainFormatter formats widget state as aligned, human-readable text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template

	label lipgloss.Style
	muted lipgloss.Style
	good  lipgloss.Style
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{
		opts:  opts,
		label: lipgloss.NewStyle(),
		muted: lipgloss.NewStyle(),
		good:  lipgloss.NewStyle(),
	}

	if opts.Color {
		f.label = f.label.Bold(true)
		f.muted = f.muted.Foreground(lipgloss.Color("8"))
		f.good = f.good.Foreground(lipgloss.Color("2"))
	}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("info").Funcs(templateFuncs(opts)).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// templateFuncs returns template helper functions.
func templateFuncs(opts FormatterOptions) template.FuncMap {
	return template.FuncMap{
		"reltime": func(ms int64) string {
			return relativeMillis(ms, opts.now())
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
}

// relativeMillis renders a Unix millisecond timestamp relative to now.
func relativeMillis(ms int64, now time.Time) string {
	if ms <= 0 {
		return "never"
	}
	return humanize.RelTime(time.UnixMilli(ms), now, "ago", "from now")
}

func (f *PlainFormatter) row(sb *strings.Builder, label, value string) {
	sb.WriteString(f.label.Render(fmt.Sprintf("%-16s", label)))
	sb.WriteString(value)
	sb.WriteString("\n")
}

// FormatInfo writes widget info as labelled rows.
func (f *PlainFormatter) FormatInfo(w io.Writer, info *model.WidgetInfo) error {
	if f.template != nil {
		if err := f.template.Execute(w, info); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	coords := f.muted.Render("no")
	if info.HasCoordinates {
		coords = f.good.Render("yes")
	}
	f.row(&sb, "Coordinates:", coords)

	lastUpdate := f.muted.Render("never")
	if info.LastUpdate > 0 {
		lastUpdate = fmt.Sprintf("%s (%s)",
			time.UnixMilli(info.LastUpdate).Format("2006-01-02 15:04:05"),
			relativeMillis(info.LastUpdate, f.opts.now()))
	}
	f.row(&sb, "Last update:", lastUpdate)

	theme := f.muted.Render("none")
	if info.Theme != nil {
		theme = *info.Theme
	}
	f.row(&sb, "Theme:", theme)

	active := f.muted.Render("inactive")
	if info.IsActive {
		active = f.good.Render("active")
	}
	f.row(&sb, "Widgets:", fmt.Sprintf("%s, %d placed", active, info.WidgetCount))

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatCoordinates writes "lat,lng", or a notice when none are stored.
func (f *PlainFormatter) FormatCoordinates(w io.Writer, c *model.Coordinates) error {
	if c == nil {
		_, err := fmt.Fprintln(w, f.muted.Render("no coordinates stored"))
		return err
	}
	_, err := fmt.Fprintf(w, "%s,%s\n", c.Lat, c.Lng)
	return err
}

// FormatSurfaces writes one line per provider.
func (f *PlainFormatter) FormatSurfaces(w io.Writer, surfaces map[model.Provider][]model.SurfaceID) error {
	if len(surfaces) == 0 {
		_, err := fmt.Fprintln(w, f.muted.Render("no widgets placed"))
		return err
	}

	var sb strings.Builder
	for _, p := range sortedProviders(surfaces) {
		ids := make([]string, len(surfaces[p]))
		for i, id := range surfaces[p] {
			ids[i] = fmt.Sprintf("%d", id)
		}
		f.row(&sb, string(p)+":", strings.Join(ids, " "))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatStore writes one line per key, sorted.
func (f *PlainFormatter) FormatStore(w io.Writer, name string, entries map[string]prefs.Value) error {
	var sb strings.Builder
	sb.WriteString(f.label.Render(name))
	sb.WriteString("\n")

	if len(entries) == 0 {
		sb.WriteString("  " + f.muted.Render("(empty)") + "\n")
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := entries[k]
		fmt.Fprintf(&sb, "  %-20s %s %s\n", k, f.muted.Render(fmt.Sprintf("%-6s", v.Kind())), v)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatNotification writes one notification per line.
func (f *PlainFormatter) FormatNotification(w io.Writer, n model.RefreshNotification) error {
	ids := make([]string, len(n.Surfaces))
	for i, id := range n.Surfaces {
		ids[i] = fmt.Sprintf("%d", id)
	}
	_, err := fmt.Fprintf(w, "%s  %-8s [%s]  %s\n",
		n.IssuedAt.Format("15:04:05"), n.Provider, strings.Join(ids, " "), f.muted.Render(n.ID))
	return err
}
