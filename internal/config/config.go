// Package config loads configuration from a config file and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all photosync configuration.
type Config struct {
	// Local library
	LibraryDir string `mapstructure:"library_dir"`
	DataDir    string `mapstructure:"data_dir"`

	// Membership rules
	WindowDays int      `mapstructure:"window_days"`
	Albums     []string `mapstructure:"albums"`

	// Remote library API
	Remote RemoteConfig `mapstructure:"remote"`

	// State persistence
	State StateConfig `mapstructure:"state"`

	// Logging
	Log LogConfig `mapstructure:"log"`

	// Daemon mode
	MetricsAddr string `mapstructure:"metrics_addr"`
	Schedule    string `mapstructure:"schedule"`
}

// RemoteConfig holds remote library client settings.
type RemoteConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UploadURL string        `mapstructure:"upload_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// StateConfig selects the state store backend.
type StateConfig struct {
	Backend string `mapstructure:"backend"` // "json" or "sqlite"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from the given file (or the default search path)
// plus PHOTOSYNC_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("library_dir", defaultLibraryDir())
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("window_days", 90)
	v.SetDefault("albums", []string{})
	v.SetDefault("remote.base_url", "https://photoslibrary.googleapis.com/v1")
	v.SetDefault("remote.upload_url", "https://photoslibrary.googleapis.com/v1/uploads")
	v.SetDefault("remote.timeout", 60*time.Second)
	v.SetDefault("state.backend", "json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("schedule", "@hourly")

	v.SetEnvPrefix("PHOTOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("photosync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "photosync"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; explicit path must exist.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if path != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.LibraryDir == "" {
		return nil, fmt.Errorf("library_dir is required")
	}
	if cfg.WindowDays < 0 {
		return nil, fmt.Errorf("window_days must not be negative")
	}
	switch cfg.State.Backend {
	case "json", "sqlite":
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}

	return &cfg, nil
}

func defaultLibraryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Pictures"
	}
	return filepath.Join(home, "Pictures")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".config", "photosync")
}
