package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "CHECKLIST_CONFIG"

type StoreBackend string

const (
	BackendSQLite StoreBackend = "sqlite"
	BackendJSON   StoreBackend = "json"
)

type RepeatMode string

const (
	// RepeatPreview fires one near-term notification for a repeat item.
	RepeatPreview RepeatMode = "preview"
	// RepeatCalendar fires on the item's calendar cadence at hour:minute.
	RepeatCalendar RepeatMode = "calendar"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is the full application configuration.
type Config struct {
	// StateDir holds the database, the notification grant and the TUI log.
	StateDir  string          `yaml:"state_dir"`
	Store     StoreConfig     `yaml:"store"`
	Reminders RemindersConfig `yaml:"reminders"`
	NATS      NATSConfig      `yaml:"nats"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	UI        UIConfig        `yaml:"ui"`
}

type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`
	// Path is relative to StateDir unless absolute. ":memory:" is honoured by sqlite.
	Path string `yaml:"path"`
	// Watch enables fsnotify-driven refresh when another process writes the store. On by default.
	Watch bool `yaml:"watch"`
}

type RemindersConfig struct {
	// IntervalUnit is the unit of an item's notification interval (minutes in production).
	IntervalUnit     time.Duration `yaml:"interval_unit"`
	FallbackInterval int           `yaml:"fallback_interval"`
	// InitialDelay is measured in IntervalUnit.
	InitialDelay int           `yaml:"initial_delay"`
	PreviewDelay time.Duration `yaml:"preview_delay"`
	RepeatMode   RepeatMode    `yaml:"repeat_mode"`
	Timezone     string        `yaml:"timezone"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string    `yaml:"level"`
	Format LogFormat `yaml:"format"`
	// File receives logs while the TUI owns the terminal.
	File string `yaml:"file"`
}

type UIConfig struct {
	Theme string `yaml:"theme"`
	// Binding chooses what swiping toward the end does: "cross" or "complete".
	Binding string `yaml:"binding"`
}

// Default returns a configuration usable without any file.
func Default() *Config {
	c := &Config{Store: StoreConfig{Watch: true}}
	c.applyDefaults()
	return c
}

// Load reads path (or the default location) and applies defaults.
// A missing file is not an error; an unreadable or invalid one is.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = filepath.Join(defaultStateDir(), "config.yaml")
	}

	// watch stays on unless the file turns it off
	cfg := &Config{Store: StoreConfig{Watch: true}}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StateDir == "" {
		c.StateDir = defaultStateDir()
	}
	c.Store.Backend = StoreBackend(strings.ToLower(string(c.Store.Backend)))
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Store.Path == "" {
		if c.Store.Backend == BackendJSON {
			c.Store.Path = "checklist.json"
		} else {
			c.Store.Path = "checklist.db"
		}
	}

	r := &c.Reminders
	if r.IntervalUnit <= 0 {
		r.IntervalUnit = time.Minute
	}
	if r.FallbackInterval <= 0 {
		r.FallbackInterval = 10
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 1
	}
	if r.PreviewDelay <= 0 {
		r.PreviewDelay = 10 * time.Second
	}
	r.RepeatMode = RepeatMode(strings.ToLower(string(r.RepeatMode)))
	if r.RepeatMode == "" {
		r.RepeatMode = RepeatPreview
	}

	if c.NATS.URL == "" {
		c.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "checklist"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "127.0.0.1:9464"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = LogFormat(strings.ToLower(string(c.Logging.Format)))
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
	if c.Logging.File == "" {
		c.Logging.File = "checklist.log"
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "classic"
	}
	if c.UI.Binding == "" {
		c.UI.Binding = "cross"
	}
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendJSON:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	switch c.Reminders.RepeatMode {
	case RepeatPreview, RepeatCalendar:
	default:
		return fmt.Errorf("config: unknown repeat mode %q", c.Reminders.RepeatMode)
	}
	if c.Reminders.Timezone != "" {
		if _, err := time.LoadLocation(c.Reminders.Timezone); err != nil {
			return fmt.Errorf("config: timezone: %w", err)
		}
	}
	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("config: unknown log format %q", c.Logging.Format)
	}
	switch c.UI.Binding {
	case "cross", "complete":
	default:
		return fmt.Errorf("config: unknown swipe binding %q", c.UI.Binding)
	}
	return nil
}

// Location returns the reminder timezone, defaulting to local time.
func (c *Config) Location() *time.Location {
	if c.Reminders.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// StorePath resolves the store path against StateDir.
func (c *Config) StorePath() string { return c.resolve(c.Store.Path) }

// LogPath resolves the TUI log file against StateDir.
func (c *Config) LogPath() string { return c.resolve(c.Logging.File) }

func (c *Config) resolve(p string) string {
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.StateDir, p)
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".checklist"
	}
	return filepath.Join(home, ".checklist")
}
