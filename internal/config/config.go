package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Last.fm API access
	Lastfm LastfmConfig `koanf:"lastfm"`

	// History fetch tuning
	Fetch FetchConfig `koanf:"fetch"`

	// Metadata cache tuning
	Cache CacheConfig `koanf:"cache"`

	// Chart build settings
	Charts ChartsConfig `koanf:"charts"`
}

// LastfmConfig holds Last.fm API credentials and the default user.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
	User      string `koanf:"user"`
}

// FetchConfig tunes paginated history retrieval.
type FetchConfig struct {
	PageSize    int `koanf:"page_size"`   // events per page (max 200)
	MaxPages    int `koanf:"max_pages"`   // hard cap on pages per fetch
	Concurrency int `koanf:"concurrency"` // concurrent page requests per batch
}

// CacheConfig tunes the track metadata cache.
type CacheConfig struct {
	Capacity int   `koanf:"capacity"` // max in-memory entries (0 = unbounded)
	Persist  *bool `koanf:"persist"`  // keep metadata in SQLite across runs (default: true)
	TTLDays  int   `koanf:"ttl_days"` // persistent entry lifetime (default: 30)
}

// ChartsConfig holds chart build defaults.
type ChartsConfig struct {
	TagLimit int `koanf:"tag_limit"` // genre tags considered per track (default: 5)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/trendfm/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "trendfm", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasLastfmConfig returns true if Last.fm API access is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// GetFetchConfig returns the fetch configuration with defaults applied.
func (c *Config) GetFetchConfig() FetchConfig {
	cfg := c.Fetch

	if cfg.PageSize <= 0 || cfg.PageSize > 200 {
		cfg.PageSize = 200
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return cfg
}

// GetCacheConfig returns the cache configuration with defaults applied.
func (c *Config) GetCacheConfig() CacheConfig {
	cfg := c.Cache

	if cfg.Capacity < 0 {
		cfg.Capacity = 0
	}
	if cfg.Persist == nil {
		persist := true
		cfg.Persist = &persist
	}
	if cfg.TTLDays <= 0 {
		cfg.TTLDays = 30
	}

	return cfg
}

// GetChartsConfig returns the chart configuration with defaults applied.
func (c *Config) GetChartsConfig() ChartsConfig {
	cfg := c.Charts

	if cfg.TagLimit < 0 {
		cfg.TagLimit = 0
	}
	if cfg.TagLimit == 0 {
		cfg.TagLimit = 5
	}

	return cfg
}
