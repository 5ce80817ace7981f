// Package config holds the client configuration: a JSON file at
// ~/.forked/config.json, overridable per-key through FORKED_* env vars
// and command flags (viper binds onto the mapstructure tags).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forkedapp/forked/internal/provider/drive"
	"github.com/forkedapp/forked/internal/provider/s3"
	"github.com/forkedapp/forked/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".forked", "config.json")
	DefaultDataDir    = filepath.Join(home, ".forked")
	DefaultLogFile    = filepath.Join(home, ".forked", "logs", "forked.log")
	DefaultDriveURL   = "https://cloud.forked.app"
)

const (
	DefaultProvider         = drive.ProviderName
	DefaultClientID         = "forked-desktop"
	DefaultSyncInterval     = 5 * time.Minute
	DefaultControlPlaneAddr = "localhost:7643"

	storeFile = "forked.db"
	lockFile  = "forked.lock"
	importDir = "import"
)

type Config struct {
	DataDir      string             `json:"data_dir" mapstructure:"data_dir"`
	Email        string             `json:"email,omitempty" mapstructure:"email"`
	Provider     string             `json:"provider" mapstructure:"provider"`
	Drive        drive.Config       `json:"drive" mapstructure:"drive"`
	S3           s3.Config          `json:"s3" mapstructure:"s3"`
	Sync         SyncConfig         `json:"sync" mapstructure:"sync"`
	ControlPlane ControlPlaneConfig `json:"control_plane" mapstructure:"control_plane"`
	Import       ImportConfig       `json:"import" mapstructure:"import"`
	Path         string             `json:"-" mapstructure:"-"`
}

// SyncConfig tunes the daemon's periodic sync.
type SyncConfig struct {
	// Interval between full sync runs. JSON stores nanoseconds; env and
	// flags accept Go duration strings.
	Interval time.Duration `json:"interval,omitempty" mapstructure:"interval"`
	// Exclude holds glob patterns matched against item names.
	Exclude []string `json:"exclude,omitempty" mapstructure:"exclude"`
}

// ControlPlaneConfig configures the local HTTP API.
type ControlPlaneConfig struct {
	Addr  string `json:"addr,omitempty" mapstructure:"addr"`
	Token string `json:"token,omitempty" mapstructure:"token"`
}

// ImportConfig configures the drop-directory importer.
type ImportConfig struct {
	// Dir is the drop directory. Defaults to <data_dir>/import.
	Dir string `json:"dir,omitempty" mapstructure:"dir"`
	// Watch enables the daemon's filesystem watcher on Dir.
	Watch bool `json:"watch,omitempty" mapstructure:"watch"`
}

// Default returns a config with every defaultable field filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields so partial config files and flag
// sets still produce a runnable config. Relative and ~ paths resolve
// to absolute ones here, before anything derives from them.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	} else if resolved, err := utils.ResolvePath(c.DataDir); err == nil {
		c.DataDir = resolved
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Drive.BaseURL == "" {
		c.Drive.BaseURL = DefaultDriveURL
	}
	if c.Drive.ClientID == "" {
		c.Drive.ClientID = DefaultClientID
	}
	if c.Drive.Email == "" {
		c.Drive.Email = c.Email
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = DefaultSyncInterval
	}
	if c.ControlPlane.Addr == "" {
		c.ControlPlane.Addr = DefaultControlPlaneAddr
	}
	if c.Import.Dir == "" {
		c.Import.Dir = filepath.Join(c.DataDir, importDir)
	} else if resolved, err := utils.ResolvePath(c.Import.Dir); err == nil {
		c.Import.Dir = resolved
	}
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Provider == drive.ProviderName && c.Drive.BaseURL == "" {
		return fmt.Errorf("drive.base_url is required")
	}
	if c.Provider == s3.ProviderName {
		if err := c.S3.Validate(); err != nil {
			return fmt.Errorf("s3: %w", err)
		}
	}
	return nil
}

// StorePath is the SQLite database backing the local store.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, storeFile)
}

// LockPath is the flock file guarding the data dir.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, lockFile)
}

func (c *Config) Save() error {
	path := c.Path
	if path == "" {
		path = DefaultConfigPath
	}

	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}

	c.Path = path
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config parse %q: %w", path, err)
	}

	cfg.Path = path
	cfg.ApplyDefaults()
	return &cfg, nil
}
