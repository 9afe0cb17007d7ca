package dbus

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/model"
)

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	calls  []string
	err    error
	active bool
	info   *model.WidgetInfo
	coords *model.Coordinates
}

func (f *fakeAPI) result(name string) (bool, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

func (f *fakeAPI) SaveCoordinates(lat, lng float64) (bool, error) {
	return f.result("SaveCoordinates")
}

func (f *fakeAPI) UpdateWidgetData(string) (bool, error) {
	return f.result("UpdateWidgetData")
}

func (f *fakeAPI) UpdateTheme(string) (bool, error) {
	return f.result("UpdateTheme")
}

func (f *fakeAPI) ForceRefresh() (bool, error) {
	return f.result("ForceRefresh")
}

func (f *fakeAPI) ForceRefreshAll() (bool, error) {
	return f.result("ForceRefreshAll")
}

func (f *fakeAPI) ClearWidgetData() (bool, error) {
	return f.result("ClearWidgetData")
}

func (f *fakeAPI) IsWidgetActive() bool { return f.active }

func (f *fakeAPI) GetWidgetInfo() (*model.WidgetInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func (f *fakeAPI) GetCoordinates() (*model.Coordinates, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.coords, nil
}

func TestService_Success(t *testing.T) {
	api := &fakeAPI{}
	s := NewService(api, "", nil)

	ok, dbusErr := s.SaveCoordinates(21, 55)
	assert.Nil(t, dbusErr)
	assert.True(t, ok)

	for _, call := range []func() (bool, *dbus.Error){
		func() (bool, *dbus.Error) { return s.UpdateWidgetData("{}") },
		func() (bool, *dbus.Error) { return s.UpdateTheme("dark") },
		s.ForceRefresh,
		s.ForceRefreshAll,
		s.ClearWidgetData,
	} {
		ok, dbusErr := call()
		assert.Nil(t, dbusErr)
		assert.True(t, ok)
	}

	assert.Equal(t, []string{
		"SaveCoordinates", "UpdateWidgetData", "UpdateTheme",
		"ForceRefresh", "ForceRefreshAll", "ClearWidgetData",
	}, api.calls)
}

func TestService_RejectsWithCode(t *testing.T) {
	api := &fakeAPI{err: &bridge.OpError{
		Code: bridge.CodeSaveCoordinates,
		Op:   "saveCoordinates",
		Err:  errors.New("disk full"),
	}}
	s := NewService(api, "", nil)

	ok, dbusErr := s.SaveCoordinates(1, 2)
	assert.False(t, ok)
	require.NotNil(t, dbusErr)
	assert.Equal(t, ErrorPrefix+bridge.CodeSaveCoordinates, dbusErr.Name)

	_, dbusErr = s.GetWidgetInfo()
	require.NotNil(t, dbusErr)

	found, _, _, dbusErr := s.GetCoordinates()
	assert.False(t, found)
	require.NotNil(t, dbusErr)
}

func TestService_IsWidgetActive(t *testing.T) {
	s := NewService(&fakeAPI{active: true}, "", nil)
	active, dbusErr := s.IsWidgetActive()
	assert.Nil(t, dbusErr)
	assert.True(t, active)
}

func TestService_GetWidgetInfo(t *testing.T) {
	s := NewService(&fakeAPI{info: &model.WidgetInfo{HasCoordinates: true, WidgetCount: 2, IsActive: true}}, "", nil)

	m, dbusErr := s.GetWidgetInfo()
	assert.Nil(t, dbusErr)
	assert.Equal(t, true, m[InfoHasCoordinates].Value())
	assert.Equal(t, int32(2), m[InfoWidgetCount].Value())
	assert.NotContains(t, m, InfoTheme)
}

func TestService_GetCoordinates(t *testing.T) {
	api := &fakeAPI{}
	s := NewService(api, "", nil)

	found, lat, lng, dbusErr := s.GetCoordinates()
	assert.Nil(t, dbusErr)
	assert.False(t, found)
	assert.Empty(t, lat)
	assert.Empty(t, lng)

	api.coords = &model.Coordinates{Lat: "21.0", Lng: "55.0"}
	found, lat, lng, dbusErr = s.GetCoordinates()
	assert.Nil(t, dbusErr)
	assert.True(t, found)
	assert.Equal(t, "21.0", lat)
	assert.Equal(t, "55.0", lng)
}

func TestService_StopWhenNotRunning(t *testing.T) {
	s := NewService(&fakeAPI{}, "org.example.Test", nil)
	assert.NoError(t, s.Stop())
	assert.Nil(t, s.Connection())
}
