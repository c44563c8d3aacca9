package config

import (
	"time"

	"topomap/internal/domain"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version" toml:"version"`
	Listen    ListenConfig    `yaml:"listen" toml:"listen"`
	Source    SourceConfig    `yaml:"source" toml:"source"`
	Refresh   RefreshConfig   `yaml:"refresh" toml:"refresh"`
	Positions PositionsConfig `yaml:"positions" toml:"positions"`
	View      ViewConfig      `yaml:"view" toml:"view"`
	Styles    StylesConfig    `yaml:"styles" toml:"styles"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// Source kinds
const (
	SourceHTTP    = "http"
	SourceFixture = "fixture"
)

// Position store backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ListenConfig holds the gesture API listener settings
type ListenConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// SourceConfig selects where topology snapshots come from
type SourceConfig struct {
	Kind    string   `yaml:"kind" toml:"kind"` // http or fixture
	BaseURL string   `yaml:"base_url,omitempty" toml:"base_url"`
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout"`
	// Token is a static anti-forgery token. When empty the token is read
	// from the csrftoken cookie.
	Token   string `yaml:"token,omitempty" toml:"token"`
	Cookie  string `yaml:"cookie,omitempty" toml:"cookie"`
	Fixture string `yaml:"fixture,omitempty" toml:"fixture"`
	Watch   bool   `yaml:"watch,omitempty" toml:"watch"`
}

// RefreshConfig controls periodic snapshot reloads
type RefreshConfig struct {
	Interval Duration `yaml:"interval" toml:"interval"`
}

// PositionsConfig selects the durable store for position overrides
type PositionsConfig struct {
	Backend string `yaml:"backend" toml:"backend"` // file or sqlite
	Path    string `yaml:"path" toml:"path"`
	Key     string `yaml:"key" toml:"key"`
}

// ViewConfig bounds the zoom and describes the canvas
type ViewConfig struct {
	Tenant   string      `yaml:"tenant,omitempty" toml:"tenant"`
	MinZoom  float64     `yaml:"min_zoom" toml:"min_zoom"`
	MaxZoom  float64     `yaml:"max_zoom" toml:"max_zoom"`
	Viewport domain.Size `yaml:"viewport" toml:"viewport"`
}

// StylesConfig holds the render lookup tables
type StylesConfig struct {
	Colors       map[string]string  `yaml:"colors,omitempty" toml:"colors"`
	Widths       map[string]float64 `yaml:"widths,omitempty" toml:"widths"`
	Icons        map[string]string  `yaml:"icons,omitempty" toml:"icons"`
	DefaultColor string             `yaml:"default_color,omitempty" toml:"default_color"`
	DefaultWidth float64            `yaml:"default_width,omitempty" toml:"default_width"`
	LabelOffset  *domain.Point      `yaml:"label_offset,omitempty" toml:"label_offset"`
}

// LoggingConfig holds log level and optional rotating file settings
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	File       string `yaml:"file,omitempty" toml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups,omitempty" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" toml:"max_age_days"`
}

// Duration wraps time.Duration for YAML and TOML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
