// Package config provides Viper-based configuration loading for the map viewer.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Room resolution strategies accepted in MapSourceConfig.Rooms.
const (
	RoomsEmbedded = "embedded"
	RoomsDerived  = "derived"
)

// Cross-level exit policies accepted in RenderConfig.CrossLevel.
const (
	CrossLevelSuppress = "suppress"
	CrossLevelStub     = "stub"
)

// Dangling exit policies accepted in RenderConfig.Dangling.
const (
	DanglingSkip = "skip"
	DanglingStub = "stub"
)

// HTTPConfig holds the browser front-end listener settings.
type HTTPConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// ReadTimeout bounds reading a full request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ViewWidth is the width of the SVG viewport in pixels.
	ViewWidth int `mapstructure:"view_width"`
	// ViewHeight is the height of the SVG viewport in pixels.
	ViewHeight int `mapstructure:"view_height"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Enabled turns the Telnet map browser on.
	Enabled bool `mapstructure:"enabled"`
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxSessions caps concurrent Telnet clients; 0 means no cap.
	MaxSessions int `mapstructure:"max_sessions"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// DatabaseConfig holds PostgreSQL connection settings for bookmark storage.
type DatabaseConfig struct {
	// Enabled selects PostgreSQL bookmarks; when false bookmarks live in memory.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path.
	Output string `mapstructure:"output"`
}

// MapSourceConfig names one map dataset document.
type MapSourceConfig struct {
	// Name is the source key, e.g. "official" or "crowd".
	Name string `mapstructure:"name"`
	// Path is the JSON or YAML dataset file.
	Path string `mapstructure:"path"`
	// Rooms is the room resolution strategy: "embedded" or "derived".
	Rooms string `mapstructure:"rooms"`
}

// MapsConfig lists the datasets loaded at startup.
type MapsConfig struct {
	// DefaultSource is the source selected for new viewers.
	DefaultSource string `mapstructure:"default_source"`
	// DefaultArea is the area selected when no restorable anchor is present.
	DefaultArea string `mapstructure:"default_area"`
	// Sources are loaded in parallel; any failure aborts startup.
	Sources []MapSourceConfig `mapstructure:"sources"`
}

// Source returns the source configuration with the given name.
//
// Postcondition: Returns (source, true) if found, or (MapSourceConfig{}, false).
func (m MapsConfig) Source(name string) (MapSourceConfig, bool) {
	for _, s := range m.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return MapSourceConfig{}, false
}

// RenderConfig selects the exit resolution policies of the scene builder.
type RenderConfig struct {
	// CrossLevel is "suppress" or "stub" for exits whose target is on another level.
	CrossLevel string `mapstructure:"cross_level"`
	// Dangling is "skip" or "stub" for exits whose target does not resolve.
	Dangling string `mapstructure:"dangling"`
	// WarpDirection is the exit name drawn as a long-range warp.
	WarpDirection string `mapstructure:"warp_direction"`
	// Debug logs every skipped exit.
	Debug bool `mapstructure:"debug"`
}

// Config is the top-level application configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Telnet   TelnetConfig   `mapstructure:"telnet"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Render   RenderConfig   `mapstructure:"render"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateHTTP(c.HTTP); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Telnet.Enabled {
		if err := validateTelnet(c.Telnet); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMaps(c.Maps); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRender(c.Render); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateHTTP(h HTTPConfig) error {
	var errs []string
	if h.Port < 0 || h.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be 0-65535, got %d", h.Port))
	}
	if h.ViewWidth < 1 || h.ViewHeight < 1 {
		errs = append(errs, fmt.Sprintf("http.view_width and http.view_height must be >= 1, got %dx%d", h.ViewWidth, h.ViewHeight))
	}
	if h.ReadTimeout < 0 || h.WriteTimeout < 0 {
		errs = append(errs, "http timeouts must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 0 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 0-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	if t.MaxSessions < 0 {
		errs = append(errs, fmt.Sprintf("telnet.max_sessions must not be negative, got %d", t.MaxSessions))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must be between 0 and database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateMaps(m MapsConfig) error {
	if len(m.Sources) == 0 {
		return errors.New("maps.sources must list at least one dataset")
	}
	var errs []string
	seen := make(map[string]bool, len(m.Sources))
	for i, s := range m.Sources {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("maps.sources[%d].name must not be empty", i))
		} else if seen[s.Name] {
			errs = append(errs, fmt.Sprintf("maps.sources[%d]: duplicate source name %q", i, s.Name))
		}
		seen[s.Name] = true
		if s.Path == "" {
			errs = append(errs, fmt.Sprintf("maps.sources[%d].path must not be empty", i))
		}
		if s.Rooms != RoomsEmbedded && s.Rooms != RoomsDerived {
			errs = append(errs, fmt.Sprintf("maps.sources[%d].rooms must be one of [embedded, derived], got %q", i, s.Rooms))
		}
	}
	if !seen[m.DefaultSource] {
		errs = append(errs, fmt.Sprintf("maps.default_source %q is not a configured source", m.DefaultSource))
	}
	if m.DefaultArea == "" {
		errs = append(errs, "maps.default_area must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRender(r RenderConfig) error {
	var errs []string
	if r.CrossLevel != CrossLevelSuppress && r.CrossLevel != CrossLevelStub {
		errs = append(errs, fmt.Sprintf("render.cross_level must be one of [suppress, stub], got %q", r.CrossLevel))
	}
	if r.Dangling != DanglingSkip && r.Dangling != DanglingStub {
		errs = append(errs, fmt.Sprintf("render.dangling must be one of [skip, stub], got %q", r.Dangling))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MUDMAP_ prefix
	v.SetEnvPrefix("MUDMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "30s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.view_width", 1024)
	v.SetDefault("http.view_height", 768)

	v.SetDefault("telnet.enabled", false)
	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "10m")
	v.SetDefault("telnet.write_timeout", "30s")
	v.SetDefault("telnet.max_sessions", 64)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mudmap")
	v.SetDefault("database.password", "mudmap")
	v.SetDefault("database.name", "mudmap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("maps.default_source", "crowd")
	v.SetDefault("maps.default_area", "11")

	v.SetDefault("render.cross_level", CrossLevelSuppress)
	v.SetDefault("render.dangling", DanglingSkip)
	v.SetDefault("render.warp_direction", "worm warp")
	v.SetDefault("render.debug", false)
}
