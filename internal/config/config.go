// Package config loads the service configuration from a YAML file with
// sensible development defaults for every field.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server struct {
		// Addr is the control API listen address.
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// Root is where the SQLite database lives.
		Root string `yaml:"root"`
	} `yaml:"storage"`

	Backend struct {
		// URL is the default classifier backend; a URL saved via the
		// settings API takes precedence.
		URL string `yaml:"url"`

		// Timeout bounds one classification round trip.
		Timeout string `yaml:"timeout"`
	} `yaml:"backend"`

	Cache struct {
		// VerdictTTL is the per-URL verdict lifetime.
		VerdictTTL string `yaml:"verdictTtl"`

		// AllowTTL is the default host-override lifetime.
		AllowTTL string `yaml:"allowTtl"`
	} `yaml:"cache"`

	Browser struct {
		// Attach enables the chromedp navigation watcher.
		Attach bool `yaml:"attach"`

		// RemoteURL attaches to a running browser instead of launching one.
		RemoteURL string `yaml:"remoteUrl"`

		Headless bool   `yaml:"headless"`
		StartURL string `yaml:"startUrl"`
	} `yaml:"browser"`

	// compiled
	backendTimeout time.Duration
	verdictTTL     time.Duration
	allowTTL       time.Duration
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8844"
	cfg.Storage.Root = "~/.config/phishgate"
	cfg.Backend.URL = "http://localhost:5000"
	cfg.Browser.Headless = true
	cfg.backendTimeout = 10 * time.Second
	cfg.verdictTTL = 30 * time.Second
	cfg.allowTTL = 5 * time.Minute
	return cfg
}

// Load reads path and overlays it on the defaults. Duration fields use
// Go duration syntax ("30s", "5m").
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Backend.Timeout != "" {
		d, err := time.ParseDuration(cfg.Backend.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("backend.timeout: %w", err)
		}
		cfg.backendTimeout = d
	}
	if cfg.Cache.VerdictTTL != "" {
		d, err := time.ParseDuration(cfg.Cache.VerdictTTL)
		if err != nil {
			return Config{}, fmt.Errorf("cache.verdictTtl: %w", err)
		}
		cfg.verdictTTL = d
	}
	if cfg.Cache.AllowTTL != "" {
		d, err := time.ParseDuration(cfg.Cache.AllowTTL)
		if err != nil {
			return Config{}, fmt.Errorf("cache.allowTtl: %w", err)
		}
		cfg.allowTTL = d
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8844"
	}

	return cfg, nil
}

// BackendTimeout returns the compiled backend timeout.
func (c *Config) BackendTimeout() time.Duration { return c.backendTimeout }

// VerdictTTL returns the compiled verdict cache TTL.
func (c *Config) VerdictTTL() time.Duration { return c.verdictTTL }

// AllowTTL returns the compiled default override TTL.
func (c *Config) AllowTTL() time.Duration { return c.allowTTL }
