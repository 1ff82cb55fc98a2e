package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	// Embedded zone database for hosts without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

const (
	defaultListen          = "127.0.0.1:8080"
	defaultTimezone        = "UTC"
	defaultWeekStart       = "monday"
	defaultRefreshCron     = "*/15 * * * *"
	defaultLogLevel        = "info"
	defaultUser            = "default"
	defaultPageLimit       = 200
	defaultMaxMonthItems   = 3
	defaultDurationMinutes = 30
	defaultCacheTTLSeconds = 30
	defaultCacheDir        = "./var/ics-cache"
	defaultHorizonDays     = 90
	defaultPastDays        = 31
)

// FeedConfig describes a single ICS subscription.
type FeedConfig struct {
	// ID names the feed in logs and record IDs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// URL is an http(s) endpoint or a file:// path.
	URL string `yaml:"url" json:"url"`
	// UserID owns the records produced by this feed. Empty means DefaultUser.
	UserID string `yaml:"user_id" json:"user_id"`
	// Kind is stamped on the produced items. Empty means "task".
	Kind model.Kind `yaml:"kind" json:"kind"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used for "today", "now" and feed conversion.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron schedule (e.g. "*/15 * * * *") for feed refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// DefaultUser is used when a request carries no X-User-ID header.
	DefaultUser string `yaml:"default_user" json:"default_user"`

	PageLimit              int `yaml:"page_limit" json:"page_limit"`
	MaxMonthItems          int `yaml:"max_month_items" json:"max_month_items"`
	DefaultDurationMinutes int `yaml:"default_duration_minutes" json:"default_duration_minutes"`
	CacheTTLSeconds        int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	// HorizonDays and PastDays bound the window feeds are expanded over,
	// counted from today.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`
	PastDays    int `yaml:"past_days" json:"past_days"`

	// CacheDir holds downloaded feed bodies and their validators.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// DataFile is an optional JSON file of schedule records loaded at startup.
	DataFile string `yaml:"data_file,omitempty" json:"data_file,omitempty"`

	ICS []FeedConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                 defaultListen,
		Timezone:               defaultTimezone,
		WeekStart:              defaultWeekStart,
		RefreshCron:            defaultRefreshCron,
		LogLevel:               defaultLogLevel,
		DefaultUser:            defaultUser,
		PageLimit:              defaultPageLimit,
		MaxMonthItems:          defaultMaxMonthItems,
		DefaultDurationMinutes: defaultDurationMinutes,
		CacheTTLSeconds:        defaultCacheTTLSeconds,
		HorizonDays:            defaultHorizonDays,
		PastDays:               defaultPastDays,
		CacheDir:               defaultCacheDir,
		ICS:                    []FeedConfig{},
	}
}

// Normalize fills in missing or out-of-range values so partially filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		// Unknown value; fall back to monday.
		c.WeekStart = defaultWeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.DefaultUser == "" {
		c.DefaultUser = defaultUser
	}
	if c.PageLimit <= 0 {
		c.PageLimit = defaultPageLimit
	}
	if c.MaxMonthItems <= 0 {
		c.MaxMonthItems = defaultMaxMonthItems
	}
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = defaultDurationMinutes
	}
	if c.CacheTTLSeconds < 0 {
		c.CacheTTLSeconds = defaultCacheTTLSeconds
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.PastDays <= 0 {
		c.PastDays = defaultPastDays
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.ICS == nil {
		c.ICS = []FeedConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].UserID == "" {
			c.ICS[i].UserID = c.DefaultUser
		}
		if c.ICS[i].Kind == "" {
			c.ICS[i].Kind = model.KindTask
		}
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.RefreshCron, err)
	}
	seen := make(map[string]bool, len(c.ICS))
	for _, f := range c.ICS {
		if f.ID == "" || f.URL == "" {
			return fmt.Errorf("config: ics entry %q needs both id and url", f.ID)
		}
		if seen[f.ID] {
			return fmt.Errorf("config: duplicate ics id %q", f.ID)
		}
		seen[f.ID] = true
		if _, err := model.ParseKind(string(f.Kind)); err != nil {
			return fmt.Errorf("config: ics %q: %w", f.ID, err)
		}
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WeekStartDay is WeekStart as a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	return datekey.ParseWeekStart(c.WeekStart)
}

// CacheTTL is CacheTTLSeconds as a duration. Zero disables response caching.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written with 0600
// permissions and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".agendacal-config-*.tmp")
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
