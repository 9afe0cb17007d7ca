// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/host"
	"github.com/jmylchreest/widgetsync/internal/model"
)

// Default configuration values.
const (
	AppName                = "widgetsync"
	DefaultBusName         = "io.github.jmylchreest.WidgetSync"
	DefaultRefreshInterval = 30 * time.Minute
	PrefsDirName           = "prefs"
)

// Config represents the widgetsync configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Sync    SyncConfig    `toml:"sync"`
	Routes  RoutesConfig  `toml:"routes"`
	Bus     BusConfig     `toml:"bus"`
	Daemon  DaemonConfig  `toml:"daemon"`
}

// StorageConfig controls where and how stores are persisted.
type StorageConfig struct {
	DataDir    string   `toml:"data_dir"`    // Empty = $XDG_DATA_HOME/widgetsync
	FlushDelay Duration `toml:"flush_delay"` // 0 = write synchronously
}

// SyncConfig controls how redundant copies of a fact are written.
type SyncConfig struct {
	WritePolicy string `toml:"write_policy"` // best-effort, all-or-nothing
}

// RoutesConfig selects the providers each operation notifies.
type RoutesConfig struct {
	Coordinates []string `toml:"coordinates"`
	Data        []string `toml:"data"`
	Theme       []string `toml:"theme"`
	Refresh     string   `toml:"refresh"`
	Probe       string   `toml:"probe"`
}

// BusConfig holds D-Bus settings.
type BusConfig struct {
	Enabled bool   `toml:"enabled"`
	Name    string `toml:"name"`
}

// DaemonConfig holds widgetsyncd settings.
type DaemonConfig struct {
	RefreshInterval Duration `toml:"refresh_interval"` // 0 disables periodic refresh
	WatchStores     bool     `toml:"watch_stores"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	all := model.ProviderNames(model.Providers())
	return &Config{
		Storage: StorageConfig{
			DataDir:    "",
			FlushDelay: 0,
		},
		Sync: SyncConfig{
			WritePolicy: string(bridge.PolicyBestEffort),
		},
		Routes: RoutesConfig{
			Coordinates: all,
			Data:        append([]string(nil), all...),
			Theme:       append([]string(nil), all...),
			Refresh:     string(model.ProviderStandard),
			Probe:       string(model.ProviderStandard),
		},
		Bus: BusConfig{
			Enabled: true,
			Name:    DefaultBusName,
		},
		Daemon: DaemonConfig{
			RefreshInterval: Duration(DefaultRefreshInterval),
			WatchStores:     true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName, "config.toml")
}

// DataPath returns the path to the default data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName)
}

// DataDir returns the configured data directory, falling back to DataPath.
func (c *Config) DataDir() string {
	if c.Storage.DataDir != "" {
		return expandPath(c.Storage.DataDir)
	}
	return DataPath()
}

// PrefsDir returns the directory holding the named store files.
func (c *Config) PrefsDir() string {
	return filepath.Join(c.DataDir(), PrefsDirName)
}

// InventoryPath returns the path of the widget surface inventory.
func (c *Config) InventoryPath() string {
	return host.InventoryPath(c.DataDir())
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Storage.FlushDelay < 0 {
		return fmt.Errorf("flush_delay must not be negative, got %s", c.Storage.FlushDelay.Duration())
	}
	if c.Daemon.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval must not be negative, got %s", c.Daemon.RefreshInterval.Duration())
	}

	if _, err := bridge.ParsePolicy(c.Sync.WritePolicy); err != nil {
		return err
	}
	if _, err := c.BridgeRoutes(); err != nil {
		return err
	}

	if c.Bus.Enabled && strings.TrimSpace(c.Bus.Name) == "" {
		return errors.New("bus name must be set when the bus is enabled")
	}
	return nil
}

// WritePolicy returns the configured fact write policy.
func (c *Config) WritePolicy() (bridge.Policy, error) {
	return bridge.ParsePolicy(c.Sync.WritePolicy)
}

// BridgeRoutes converts the routes section to provider routing.
func (c *Config) BridgeRoutes() (bridge.Routes, error) {
	var (
		r   bridge.Routes
		err error
	)
	if r.Coordinates, err = parseRoute("coordinates", c.Routes.Coordinates); err != nil {
		return r, err
	}
	if r.Data, err = parseRoute("data", c.Routes.Data); err != nil {
		return r, err
	}
	if r.Theme, err = parseRoute("theme", c.Routes.Theme); err != nil {
		return r, err
	}
	if r.Refresh, err = model.ParseProvider(c.Routes.Refresh); err != nil {
		return r, fmt.Errorf("routes.refresh: %w", err)
	}
	if r.Probe, err = model.ParseProvider(c.Routes.Probe); err != nil {
		return r, fmt.Errorf("routes.probe: %w", err)
	}
	return r, nil
}

func parseRoute(name string, providers []string) ([]model.Provider, error) {
	ps, err := model.ParseProviders(providers)
	if err != nil {
		return nil, fmt.Errorf("routes.%s: %w", name, err)
	}
	return ps, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
