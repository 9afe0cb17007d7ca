package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.Storage.DataDir)
	assert.Zero(t, cfg.Storage.FlushDelay)
	assert.Equal(t, "best-effort", cfg.Sync.WritePolicy)
	assert.Len(t, cfg.Routes.Theme, 5)
	assert.Equal(t, "standard", cfg.Routes.Refresh)
	assert.Equal(t, "standard", cfg.Routes.Probe)
	assert.True(t, cfg.Bus.Enabled)
	assert.Equal(t, DefaultBusName, cfg.Bus.Name)
	assert.Equal(t, 30*time.Minute, cfg.Daemon.RefreshInterval.Duration())
	assert.True(t, cfg.Daemon.WatchStores)
	require.NoError(t, cfg.Validate())

	routes, err := cfg.BridgeRoutes()
	require.NoError(t, err)
	assert.Equal(t, bridge.DefaultRoutes(), routes)
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[storage]
data_dir = "/srv/widgets"
flush_delay = "250ms"

[sync]
write_policy = "all-or-nothing"

[routes]
coordinates = ["standard"]
data = ["standard", "full"]
theme = []
refresh = "compact"
probe = "wide"

[bus]
enabled = false

[daemon]
refresh_interval = "60000"
watch_stores = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/widgets", cfg.DataDir())
	assert.Equal(t, "/srv/widgets/prefs", cfg.PrefsDir())
	assert.Equal(t, "/srv/widgets/surfaces.json", cfg.InventoryPath())
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.FlushDelay.Duration())
	assert.False(t, cfg.Bus.Enabled)
	assert.Equal(t, time.Minute, cfg.Daemon.RefreshInterval.Duration())
	assert.False(t, cfg.Daemon.WatchStores)

	policy, err := cfg.WritePolicy()
	require.NoError(t, err)
	assert.Equal(t, bridge.PolicyAllOrNothing, policy)

	routes, err := cfg.BridgeRoutes()
	require.NoError(t, err)
	assert.Equal(t, []model.Provider{model.ProviderStandard}, routes.Coordinates)
	assert.Equal(t, []model.Provider{model.ProviderStandard, model.ProviderFull}, routes.Data)
	assert.Empty(t, routes.Theme)
	assert.Equal(t, model.ProviderCompact, routes.Refresh)
	assert.Equal(t, model.ProviderWide, routes.Probe)
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[routes]
theme = ["standard"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// Changed field
	assert.Equal(t, []string{"standard"}, cfg.Routes.Theme)

	// Unchanged fields should have defaults
	assert.Len(t, cfg.Routes.Coordinates, 5)
	assert.Equal(t, "best-effort", cfg.Sync.WritePolicy)
	assert.True(t, cfg.Bus.Enabled)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad toml", content: `this is not valid toml [`},
		{name: "unknown provider", content: "[routes]\ntheme = [\"huge\"]\n"},
		{name: "unknown probe", content: "[routes]\nprobe = \"\"\n"},
		{name: "unknown policy", content: "[sync]\nwrite_policy = \"eventually\"\n"},
		{name: "bad duration", content: "[storage]\nflush_delay = \"soon\"\n"},
		{name: "negative duration", content: "[daemon]\nrefresh_interval = \"-1s\"\n"},
		{name: "empty bus name", content: "[bus]\nname = \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Storage.FlushDelay = Duration(time.Second)
	cfg.Routes.Theme = []string{"compact"}

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, loaded.Storage.FlushDelay.Duration())
	assert.Equal(t, []string{"compact"}, loaded.Routes.Theme)
	assert.Equal(t, cfg.Daemon.RefreshInterval, loaded.Daemon.RefreshInterval)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "0", want: 0},
		{input: "1500", want: 1500 * time.Millisecond},
		{input: "30m", want: 30 * time.Minute},
		{input: "1h30m", want: 90 * time.Minute},
		{input: "later", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/widgetsync/config.toml", ConfigPath())
}

func TestDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, "/custom/data/widgetsync", DataPath())

	cfg := DefaultConfig()
	assert.Equal(t, "/custom/data/widgetsync", cfg.DataDir())
	assert.Equal(t, "/custom/data/widgetsync/prefs", cfg.PrefsDir())
}
