package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/widgetsync/internal/model"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

var refNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func testOptions() FormatterOptions {
	return FormatterOptions{Now: func() time.Time { return refNow }}
}

func testInfo() *model.WidgetInfo {
	theme := `{"mode":"dark"}`
	return &model.WidgetInfo{
		HasCoordinates: true,
		LastUpdate:     refNow.Add(-5 * time.Minute).UnixMilli(),
		Theme:          &theme,
		IsActive:       true,
		WidgetCount:    2,
	}
}

func TestParseFormatType(t *testing.T) {
	for _, name := range []string{"plain", "JSON", "yaml"} {
		_, err := ParseFormatType(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseFormatType("xml")
	assert.Error(t, err)
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, testOptions()))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML, testOptions()))
	assert.IsType(t, &PlainFormatter{}, NewFormatter(FormatPlain, testOptions()))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("", testOptions()))
}

func TestPlainFormatter_FormatInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(testOptions()).FormatInfo(&buf, testInfo()))

	out := buf.String()
	assert.Contains(t, out, "Coordinates:")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "5 minutes ago")
	assert.Contains(t, out, `{"mode":"dark"}`)
	assert.Contains(t, out, "active, 2 placed")
}

func TestPlainFormatter_FormatInfoEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(testOptions()).FormatInfo(&buf, &model.WidgetInfo{}))

	out := buf.String()
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "inactive, 0 placed")
}

func TestPlainFormatter_Template(t *testing.T) {
	opts := testOptions()
	opts.Template = "{{.WidgetCount}} widgets, theme={{deref .Theme}}, updated {{reltime .LastUpdate}}"

	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(opts).FormatInfo(&buf, testInfo()))
	assert.Equal(t, `2 widgets, theme={"mode":"dark"}, updated 5 minutes ago`+"\n", buf.String())
}

func TestPlainFormatter_FormatCoordinates(t *testing.T) {
	f := NewPlainFormatter(testOptions())

	var buf bytes.Buffer
	require.NoError(t, f.FormatCoordinates(&buf, &model.Coordinates{Lat: "21.0", Lng: "55.0"}))
	assert.Equal(t, "21.0,55.0\n", buf.String())

	buf.Reset()
	require.NoError(t, f.FormatCoordinates(&buf, nil))
	assert.Contains(t, buf.String(), "no coordinates stored")
}

func TestPlainFormatter_FormatSurfaces(t *testing.T) {
	f := NewPlainFormatter(testOptions())

	var buf bytes.Buffer
	require.NoError(t, f.FormatSurfaces(&buf, map[model.Provider][]model.SurfaceID{
		model.ProviderWide:     {9},
		model.ProviderStandard: {1, 2},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "standard:"))
	assert.True(t, strings.HasSuffix(lines[0], "1 2"))
	assert.True(t, strings.HasPrefix(lines[1], "wide:"))

	buf.Reset()
	require.NoError(t, f.FormatSurfaces(&buf, nil))
	assert.Contains(t, buf.String(), "no widgets placed")
}

func TestPlainFormatter_FormatStore(t *testing.T) {
	var buf bytes.Buffer
	err := NewPlainFormatter(testOptions()).FormatStore(&buf, prefs.StorePrayer, map[string]prefs.Value{
		prefs.KeyLng:                prefs.StringValue("55.0"),
		prefs.KeyLat:                prefs.StringValue("21.0"),
		prefs.KeyCoordinatesUpdated: prefs.Int64Value(1700000000000),
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, prefs.StorePrayer, lines[0])
	assert.Contains(t, lines[1], "coordinates_updated")
	assert.Contains(t, lines[1], "int64")
	assert.Contains(t, lines[1], "1700000000000")
	assert.Contains(t, lines[2], "lat")
	assert.Contains(t, lines[3], "55.0")
}

func TestPlainFormatter_FormatNotification(t *testing.T) {
	n := model.RefreshNotification{
		ID:       "01HQ000000000000000000000",
		Provider: model.ProviderCompact,
		Surfaces: []model.SurfaceID{3, 4},
		IssuedAt: refNow,
	}
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(testOptions()).FormatNotification(&buf, n))
	assert.Contains(t, buf.String(), "compact")
	assert.Contains(t, buf.String(), "[3 4]")
	assert.Contains(t, buf.String(), n.ID)
}

func TestJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(testOptions())

	var buf bytes.Buffer
	require.NoError(t, f.FormatInfo(&buf, testInfo()))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["hasCoordinates"])
	assert.Equal(t, `{"mode":"dark"}`, decoded["theme"])
	assert.Equal(t, float64(2), decoded["widgetCount"])

	buf.Reset()
	require.NoError(t, f.FormatInfo(&buf, &model.WidgetInfo{}))
	assert.Contains(t, buf.String(), `"theme": null`)

	buf.Reset()
	require.NoError(t, f.FormatCoordinates(&buf, nil))
	assert.Equal(t, "null\n", buf.String())

	buf.Reset()
	require.NoError(t, f.FormatStore(&buf, "app_location", map[string]prefs.Value{
		prefs.KeyCurrentLat: prefs.StringValue("21.0"),
	}))
	assert.JSONEq(t, `{"name":"app_location","entries":{"current_lat":{"type":"string","value":"21.0"}}}`, buf.String())

	buf.Reset()
	require.NoError(t, f.FormatSurfaces(&buf, map[model.Provider][]model.SurfaceID{model.ProviderFull: {7}}))
	assert.JSONEq(t, `{"full":[7]}`, buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	f := NewYAMLFormatter(testOptions())

	var buf bytes.Buffer
	require.NoError(t, f.FormatInfo(&buf, testInfo()))

	var decoded model.WidgetInfo
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *testInfo().Theme, *decoded.Theme)
	assert.Equal(t, 2, decoded.WidgetCount)
	assert.True(t, decoded.IsActive)

	buf.Reset()
	require.NoError(t, f.FormatCoordinates(&buf, &model.Coordinates{Lat: "21.0", Lng: "55.0"}))
	var coords model.Coordinates
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &coords))
	assert.Equal(t, model.Coordinates{Lat: "21.0", Lng: "55.0"}, coords)

	buf.Reset()
	n := model.RefreshNotification{ID: "x", Provider: model.ProviderSmall, Surfaces: []model.SurfaceID{1}, IssuedAt: refNow}
	require.NoError(t, f.FormatNotification(&buf, n))
	assert.Contains(t, buf.String(), "provider: small")
}
