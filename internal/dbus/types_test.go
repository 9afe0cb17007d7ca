package dbus

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/model"
)

func TestInfoVariants(t *testing.T) {
	theme := `{"mode":"dark"}`
	tests := []struct {
		name string
		info model.WidgetInfo
	}{
		{
			name: "full",
			info: model.WidgetInfo{
				HasCoordinates: true,
				LastUpdate:     1700000000000,
				Theme:          &theme,
				IsActive:       true,
				WidgetCount:    3,
			},
		},
		{
			name: "empty",
			info: model.WidgetInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := infoToVariants(&tt.info)
			if tt.info.Theme == nil {
				assert.NotContains(t, m, InfoTheme)
			}
			assert.Equal(t, "d", m[InfoLastUpdate].Signature().String())
			assert.Equal(t, "i", m[InfoWidgetCount].Signature().String())

			got, err := infoFromVariants(m)
			require.NoError(t, err)
			assert.Equal(t, &tt.info, got)
		})
	}
}

func TestInfoFromVariants_WrongType(t *testing.T) {
	_, err := infoFromVariants(map[string]dbus.Variant{
		InfoWidgetCount: dbus.MakeVariant("three"),
	})
	assert.Error(t, err)
}

func TestToDBusError(t *testing.T) {
	assert.Nil(t, toDBusError(nil))

	opErr := &bridge.OpError{Code: bridge.CodeUpdateTheme, Op: "updateTheme", Err: errors.New("disk full")}
	dbusErr := toDBusError(opErr)
	assert.Equal(t, "io.github.jmylchreest.WidgetSync.Error.UPDATE_THEME_ERROR", dbusErr.Name)
	assert.Equal(t, "disk full", dbusErr.Error())

	dbusErr = toDBusError(errors.New("boom"))
	assert.Equal(t, ErrorPrefix+ErrorFailed, dbusErr.Name)
}

func TestFromDBusError(t *testing.T) {
	assert.NoError(t, fromDBusError("op", nil))

	remote := *dbus.NewError(ErrorPrefix+bridge.CodeClearWidgetData, []interface{}{"locked"})
	err := fromDBusError("clearWidgetData", remote)
	var opErr *bridge.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, bridge.CodeClearWidgetData, opErr.Code)
	assert.Equal(t, "clearWidgetData", opErr.Op)
	assert.EqualError(t, opErr.Err, "locked")

	// Pointer form too
	err = fromDBusError("forceRefresh", dbus.NewError(ErrorPrefix+bridge.CodeForceRefresh, []interface{}{"x"}))
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, bridge.CodeForceRefresh, opErr.Code)

	// Foreign errors pass through
	foreign := dbus.NewError("org.freedesktop.DBus.Error.ServiceUnknown", []interface{}{"no owner"})
	assert.Same(t, foreign, fromDBusError("op", foreign))

	plain := errors.New("timeout")
	assert.Equal(t, plain, fromDBusError("op", plain))
}

func TestNotificationFromSignal(t *testing.T) {
	issued := time.UnixMilli(1700000000000)
	id := model.NewID(issued)

	n, err := notificationFromSignal(&dbus.Signal{
		Path: Path,
		Name: Interface + "." + SignalRefresh,
		Body: []interface{}{"compact", []int32{4, 5}, id},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProviderCompact, n.Provider)
	assert.Equal(t, []model.SurfaceID{4, 5}, n.Surfaces)
	assert.Equal(t, id, n.ID)
	assert.True(t, issued.Equal(n.IssuedAt))
}

func TestNotificationFromSignal_Malformed(t *testing.T) {
	name := Interface + "." + SignalRefresh
	tests := []struct {
		name string
		sig  *dbus.Signal
	}{
		{name: "wrong member", sig: &dbus.Signal{Name: Interface + ".Other", Body: []interface{}{"a", []int32{}, "b"}}},
		{name: "short body", sig: &dbus.Signal{Name: name, Body: []interface{}{"standard"}}},
		{name: "provider type", sig: &dbus.Signal{Name: name, Body: []interface{}{1, []int32{}, "id"}}},
		{name: "surfaces type", sig: &dbus.Signal{Name: name, Body: []interface{}{"standard", "1,2", "id"}}},
		{name: "id type", sig: &dbus.Signal{Name: name, Body: []interface{}{"standard", []int32{}, 7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := notificationFromSignal(tt.sig)
			assert.Error(t, err)
		})
	}
}

func TestEmitter_NotConnected(t *testing.T) {
	err := NewEmitter(nil, nil).Dispatch(model.NewRefreshNotification(model.ProviderStandard, nil, time.Now()))
	assert.Error(t, err)
}

func TestMatchOptions(t *testing.T) {
	assert.Len(t, matchOptions(""), 3)
	assert.Len(t, matchOptions(model.ProviderWide), 4)
}

func TestIntrospection_MatchesExportedMethods(t *testing.T) {
	typ := reflect.TypeOf(&Service{})
	errType := reflect.TypeOf(&dbus.Error{})

	for _, m := range serviceMethods() {
		method, ok := typ.MethodByName(m.Name)
		require.True(t, ok, "missing method %s", m.Name)

		var in, out int
		for _, arg := range m.Args {
			if arg.Direction == "in" {
				in++
			} else {
				out++
			}
		}
		mt := method.Type
		assert.Equal(t, in, mt.NumIn()-1, m.Name) // receiver
		assert.Equal(t, out, mt.NumOut()-1, m.Name)
		assert.Equal(t, errType, mt.Out(mt.NumOut()-1), m.Name)
	}
}
