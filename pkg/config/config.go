package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultAddr              = ":8080"
	DefaultCacheMaxAge       = 3600
	DefaultReadHeaderTimeout = "5s"
	DefaultShutdownTimeout   = "10s"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultReloadInterval    = "2s"
)

// Config is the server configuration. Durations are kept as strings so the
// same struct decodes from YAML and TOML; use the accessor methods.
//
// server.cache_max_age is a pointer so an explicit 0 (revalidate every asset)
// is told apart from an unset key.
type Config struct {
	Server struct {
		Addr              string `yaml:"addr" toml:"addr"`
		Root              string `yaml:"root" toml:"root"`
		Document          string `yaml:"document" toml:"document"`
		CacheMaxAge       *int   `yaml:"cache_max_age" toml:"cache_max_age"`
		ReadHeaderTimeout string `yaml:"read_header_timeout" toml:"read_header_timeout"`
		ShutdownTimeout   string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	} `yaml:"server" toml:"server"`

	Log struct {
		Level  string `yaml:"level" toml:"level"`
		Format string `yaml:"format" toml:"format"`
	} `yaml:"log" toml:"log"`

	Reload struct {
		Enabled  bool   `yaml:"enabled" toml:"enabled"`
		Interval string `yaml:"interval" toml:"interval"`
	} `yaml:"reload" toml:"reload"`
}

// DefaultLocations are searched in order when no config path is given.
var DefaultLocations = []string{
	"smssync-site.yaml",
	"smssync-site.yml",
	"smssync-site.toml",
	"/etc/smssync-site/config.yaml",
}

// LoadConfig reads the config file at path, or the first of DefaultLocations
// that exists. With no file at all the defaults are used. Environment
// variables override file values.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		for _, loc := range DefaultLocations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() *Config {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = DefaultAddr
	}
	if config.Server.CacheMaxAge == nil {
		maxAge := DefaultCacheMaxAge
		config.Server.CacheMaxAge = &maxAge
	}
	if config.Server.ReadHeaderTimeout == "" {
		config.Server.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if config.Server.ShutdownTimeout == "" {
		config.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Format == "" {
		config.Log.Format = DefaultLogFormat
	}

	if config.Reload.Interval == "" {
		config.Reload.Interval = DefaultReloadInterval
	}
}

func mergeWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
	if root := os.Getenv("SMSSYNC_SITE_ROOT"); root != "" {
		config.Server.Root = root
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}

// CacheMaxAgeSeconds returns server.cache_max_age.
func (c *Config) CacheMaxAgeSeconds() int {
	if c.Server.CacheMaxAge == nil {
		return DefaultCacheMaxAge
	}
	return *c.Server.CacheMaxAge
}

// ReadHeaderTimeoutDuration returns server.read_header_timeout.
func (c *Config) ReadHeaderTimeoutDuration() time.Duration {
	return mustDuration(c.Server.ReadHeaderTimeout, DefaultReadHeaderTimeout)
}

// ShutdownTimeoutDuration returns server.shutdown_timeout.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout, DefaultShutdownTimeout)
}

// ReloadInterval returns reload.interval.
func (c *Config) ReloadInterval() time.Duration {
	return mustDuration(c.Reload.Interval, DefaultReloadInterval)
}

// mustDuration parses s, falling back to def. Validate reports bad values
// before they get here.
func mustDuration(s, def string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
