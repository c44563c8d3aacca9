// Package config provides configuration management for topomap.
//
// Config file locations (priority order):
//  1. --config flag
//  2. $TOPOMAP_CONFIG
//  3. ./topomap.yaml
//  4. $XDG_CONFIG_HOME/topomap/config.yaml
//  5. ~/.config/topomap/config.yaml
//  6. /etc/topomap/config.yaml
//
// Files ending in .toml are decoded as TOML, everything else as YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"topomap/internal/domain"
)

// Defaults
const (
	DefaultListenAddr      = ":8080"
	DefaultRefreshInterval = 30 * time.Second
	DefaultSourceTimeout   = 10 * time.Second
	DefaultPositionsKey    = "posicoesEquipamentos"
	DefaultPositionsPath   = "./topomap-positions.json"
	DefaultCSRFCookie      = "csrftoken"
	DefaultMinZoom         = 0.5
	DefaultMaxZoom         = 3
)

// Load finds and loads the config file, or returns defaults if none found.
// An explicit path wins over the search order.
func Load(explicit string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = FindConfigPath()
	}

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, path, fmt.Errorf("parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		data = []byte(sb.String())
	} else {
		var err error
		data, err = yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{Version: 1}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Listen.Addr == "" {
		c.Listen.Addr = DefaultListenAddr
	}

	if c.Source.Kind == "" {
		if c.Source.Fixture != "" {
			c.Source.Kind = SourceFixture
		} else {
			c.Source.Kind = SourceHTTP
		}
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "http://localhost:8000"
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = Duration(DefaultSourceTimeout)
	}
	if c.Source.Cookie == "" {
		c.Source.Cookie = DefaultCSRFCookie
	}

	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = Duration(DefaultRefreshInterval)
	}

	if c.Positions.Backend == "" {
		c.Positions.Backend = BackendFile
	}
	if c.Positions.Path == "" {
		if c.Positions.Backend == BackendSQLite {
			c.Positions.Path = "./topomap.db"
		} else {
			c.Positions.Path = DefaultPositionsPath
		}
	}
	if c.Positions.Key == "" {
		c.Positions.Key = DefaultPositionsKey
	}

	if c.View.MinZoom == 0 {
		c.View.MinZoom = DefaultMinZoom
	}
	if c.View.MaxZoom == 0 {
		c.View.MaxZoom = DefaultMaxZoom
	}
	if c.View.Viewport.Width == 0 || c.View.Viewport.Height == 0 {
		c.View.Viewport = domain.Size{Width: 800, Height: 600}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate reports settings that cannot be used
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceHTTP:
	case SourceFixture:
		if c.Source.Fixture == "" {
			return fmt.Errorf("invalid config: source.fixture is required for kind %q", SourceFixture)
		}
	default:
		return fmt.Errorf("invalid config: unknown source.kind %q", c.Source.Kind)
	}

	switch c.Positions.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("invalid config: unknown positions.backend %q", c.Positions.Backend)
	}

	if c.View.MinZoom <= 0 || c.View.MaxZoom < c.View.MinZoom {
		return fmt.Errorf("invalid config: zoom bounds [%g, %g]", c.View.MinZoom, c.View.MaxZoom)
	}

	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Source: %s", c.Listen.Addr, c.Source.Kind)
	if c.Source.Kind == SourceFixture {
		summary += fmt.Sprintf(" (%s)", c.Source.Fixture)
	} else {
		summary += fmt.Sprintf(" (%s)", c.Source.BaseURL)
	}
	summary += fmt.Sprintf("\nRefresh: %s, Positions: %s at %s\n",
		c.Refresh.Interval.Duration(), c.Positions.Backend, c.Positions.Path)
	summary += fmt.Sprintf("Zoom: [%g, %g]", c.View.MinZoom, c.View.MaxZoom)
	return summary
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
