package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultRefreshCron = "* * * * *"
	defaultICSCron     = "*/15 * * * *"
	defaultInsightDays = 7
	defaultEventMins   = 60
	defaultStatePath   = "data/state.json"
	defaultICSCacheDir = "data/ics-cache"
	defaultCaptureURL  = "http://127.0.0.1:8080/week"
	defaultCaptureOut  = "data/week.png"
	defaultCaptureW    = 1280
	defaultCaptureH    = 800
	defaultLogLevel    = "info"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID tags imported events; a re-sync replaces every event with this id.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label copied into each event's calendar field.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls the periodic headless snapshot of the week page.
type CaptureConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	URL        string `yaml:"url" json:"url"`
	OutputPath string `yaml:"output_path" json:"output_path"`
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone that defines "today" for every evaluation.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron schedules the dashboard refresh tick (due-soon escalation,
	// metrics log, optional capture).
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ICSRefreshCron schedules the ICS subscription sync.
	ICSRefreshCron string `yaml:"ics_refresh" json:"ics_refresh"`

	// InsightDays is the length of the upcoming-insights window.
	InsightDays int `yaml:"insight_days" json:"insight_days"`

	// DefaultEventMinutes is the duration given to events without a usable
	// end time.
	DefaultEventMinutes int `yaml:"default_event_minutes" json:"default_event_minutes"`

	StatePath   string `yaml:"state_path" json:"state_path"`
	PresetDir   string `yaml:"preset_dir,omitempty" json:"preset_dir,omitempty"`
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.ICSRefreshCron == "" {
		c.ICSRefreshCron = defaultICSCron
	}
	if c.InsightDays <= 0 {
		c.InsightDays = defaultInsightDays
	}
	if c.DefaultEventMinutes <= 0 {
		c.DefaultEventMinutes = defaultEventMins
	}
	if c.StatePath == "" {
		c.StatePath = defaultStatePath
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = defaultICSCacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Capture.URL == "" {
		c.Capture.URL = defaultCaptureURL
	}
	if c.Capture.OutputPath == "" {
		c.Capture.OutputPath = defaultCaptureOut
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = defaultCaptureW
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = defaultCaptureH
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = defaultLogLevel
	}
}

// Location resolves Timezone. Unknown zones are an error rather than a
// silent fallback, since every date computation depends on it.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Resolve makes relative data paths relative to the directory of the
// config file.
func (c *Config) Resolve(configPath string) {
	base := filepath.Dir(configPath)
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.StatePath = abs(c.StatePath)
	c.PresetDir = abs(c.PresetDir)
	c.ICSCacheDir = abs(c.ICSCacheDir)
	c.Capture.OutputPath = abs(c.Capture.OutputPath)
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written there with 0600
// permissions and returned. Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".orbit-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
