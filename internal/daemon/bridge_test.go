package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/widgetsync/internal/config"
	"github.com/jmylchreest/widgetsync/internal/model"
	"github.com/jmylchreest/widgetsync/internal/prefs"
)

type staticInventory map[model.Provider][]model.SurfaceID

func (i staticInventory) ActiveSurfaces(p model.Provider) ([]model.SurfaceID, error) {
	return i[p], nil
}

type collectingDispatcher struct {
	got []model.RefreshNotification
}

func (d *collectingDispatcher) Dispatch(n model.RefreshNotification) error {
	d.got = append(d.got, n)
	return nil
}

func TestNewBridge_UsesConfiguredRoutes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Routes.Theme = []string{"wide"}

	accessor, err := prefs.NewAccessor("", nil)
	require.NoError(t, err)

	inventory := staticInventory{
		model.ProviderStandard: {1},
		model.ProviderWide:     {2},
	}
	dispatcher := &collectingDispatcher{}

	b, err := NewBridge(cfg, accessor, inventory, dispatcher, nil)
	require.NoError(t, err)

	ok, err := b.UpdateTheme(`{"mode":"light"}`)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, dispatcher.got, 1)
	assert.Equal(t, model.ProviderWide, dispatcher.got[0].Provider)
	assert.Equal(t, []model.SurfaceID{2}, dispatcher.got[0].Surfaces)

	theme, err := accessor.GetString(prefs.StorePrayer, prefs.KeyTheme, "")
	require.NoError(t, err)
	assert.Equal(t, `{"mode":"light"}`, theme)
}

func TestNewBridge_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sync.WritePolicy = "sometimes"
	_, err := NewBridge(cfg, nil, staticInventory{}, &collectingDispatcher{}, nil)
	assert.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.Routes.Probe = "huge"
	_, err = NewBridge(cfg, nil, staticInventory{}, &collectingDispatcher{}, nil)
	assert.Error(t, err)
}
