package bridge

import "github.com/jmylchreest/widgetsync/internal/prefs"

// Fact names.
const (
	FactCoordinates = "coordinates"
	FactWidgetData  = "widget_data"
	FactTheme       = "theme"
)

// CoordinatesFact builds the coordinates fact. The primary store also gets the
// update timestamp; the location stores only hold the pair.
func CoordinatesFact(lat, lng string, updatedMillis int64) Fact {
	return Fact{
		Name: FactCoordinates,
		Targets: []Target{
			{Store: prefs.StorePrayer, Values: map[string]prefs.Value{
				prefs.KeyLat:                prefs.StringValue(lat),
				prefs.KeyLng:                prefs.StringValue(lng),
				prefs.KeyCoordinatesUpdated: prefs.Int64Value(updatedMillis),
			}},
			{Store: prefs.StoreLocation, Values: map[string]prefs.Value{
				prefs.KeyLat: prefs.StringValue(lat),
				prefs.KeyLng: prefs.StringValue(lng),
			}},
			{Store: prefs.StoreAppLocation, Values: map[string]prefs.Value{
				prefs.KeyCurrentLat: prefs.StringValue(lat),
				prefs.KeyCurrentLng: prefs.StringValue(lng),
			}},
		},
	}
}

// WidgetDataFact builds the widget data fact.
func WidgetDataFact(data string, updatedMillis int64) Fact {
	return Fact{
		Name: FactWidgetData,
		Targets: []Target{
			{Store: prefs.StorePrayer, Values: map[string]prefs.Value{
				prefs.KeyWidgetData:  prefs.StringValue(data),
				prefs.KeyDataUpdated: prefs.Int64Value(updatedMillis),
			}},
		},
	}
}

// ThemeFact builds the theme fact.
func ThemeFact(theme string) Fact {
	return Fact{
		Name: FactTheme,
		Targets: []Target{
			{Store: prefs.StorePrayer, Values: map[string]prefs.Value{
				prefs.KeyTheme: prefs.StringValue(theme),
			}},
		},
	}
}
