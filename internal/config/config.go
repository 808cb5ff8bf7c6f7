package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/scrapegoat/internal/logging"
)

// Prefix is prepended to every environment variable name.
const Prefix = "SCRAPEGOAT"

// Render modes for fetched pages.
const (
	RenderHTTP     = "http"
	RenderHeadless = "headless"
	RenderScript   = "script"
)

// Config holds all application configuration.
type Config struct {
	Log     logging.Config `envconfig:"LOG" toml:"log"`
	Fetch   FetchConfig    `envconfig:"FETCH" toml:"fetch"`
	Output  OutputConfig   `envconfig:"OUTPUT" toml:"output"`
	Server  ServerConfig   `envconfig:"SERVER" toml:"server"`
	Metrics MetricsConfig  `envconfig:"METRICS" toml:"metrics"`
}

// FetchConfig controls how VISIT retrieves pages.
type FetchConfig struct {
	Timeout     Duration `envconfig:"TIMEOUT" default:"30s" toml:"timeout"`
	Retries     int      `envconfig:"RETRIES" default:"2" toml:"retries"`
	RatePerHost float64  `envconfig:"RATE_PER_HOST" default:"2" toml:"rate_per_host"`
	Burst       int      `envconfig:"BURST" default:"4" toml:"burst"`
	UserAgent   string   `envconfig:"USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0 Safari/537.36" toml:"user_agent"`
	MaxBytes    int64    `envconfig:"MAX_BYTES" default:"10485760" toml:"max_bytes"`
	Render      string   `envconfig:"RENDER" default:"http" toml:"render"`
	// ScriptTimeout bounds inline script execution in script render mode.
	ScriptTimeout Duration `envconfig:"SCRIPT_TIMEOUT" default:"2s" toml:"script_timeout"`
	// CachePath enables the sqlite page cache when set.
	CachePath       string   `envconfig:"CACHE_PATH" toml:"cache_path"`
	CacheTTL        Duration `envconfig:"CACHE_TTL" default:"1h" toml:"cache_ttl"`
	AllowFile       bool     `envconfig:"ALLOW_FILE" default:"true" toml:"allow_file"`
	BreakerFailures uint32   `envconfig:"BREAKER_FAILURES" default:"5" toml:"breaker_failures"`
	BreakerCooldown Duration `envconfig:"BREAKER_COOLDOWN" default:"30s" toml:"breaker_cooldown"`
}

// OutputConfig controls where OUTPUT writes files.
type OutputConfig struct {
	Dir string `envconfig:"DIR" default:"." toml:"dir"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Host              string   `envconfig:"HOST" default:"127.0.0.1" toml:"host"`
	Port              string   `envconfig:"PORT" default:"8080" toml:"port"`
	RequestsPerSecond int      `envconfig:"RPS" default:"10" toml:"requests_per_second"`
	Burst             int      `envconfig:"RPS_BURST" default:"20" toml:"burst"`
	RunTimeout        Duration `envconfig:"RUN_TIMEOUT" default:"60s" toml:"run_timeout"`
}

// MetricsConfig holds metrics export configuration.
type MetricsConfig struct {
	// Textfile, when set, receives a Prometheus text dump after each CLI run.
	Textfile string `envconfig:"TEXTFILE" toml:"textfile"`
}

// Duration is a time.Duration read from strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads configuration from the environment or returns Default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile reads the environment and then overlays the TOML file at path.
// Keys absent from the file keep their environment or default values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that envconfig and toml cannot.
func (c *Config) Validate() error {
	switch c.Fetch.Render {
	case RenderHTTP, RenderHeadless, RenderScript:
	default:
		return fmt.Errorf("invalid render mode %q: want %s, %s or %s", c.Fetch.Render, RenderHTTP, RenderHeadless, RenderScript)
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("fetch retries must not be negative, got %d", c.Fetch.Retries)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("fetch max bytes must be positive, got %d", c.Fetch.MaxBytes)
	}
	if c.Fetch.RatePerHost <= 0 {
		return fmt.Errorf("fetch rate per host must be positive, got %g", c.Fetch.RatePerHost)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: logging.DefaultConfig(),
		Fetch: FetchConfig{
			Timeout:         Duration{30 * time.Second},
			Retries:         2,
			RatePerHost:     2,
			Burst:           4,
			UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0 Safari/537.36",
			MaxBytes:        10 << 20,
			Render:          RenderHTTP,
			ScriptTimeout:   Duration{2 * time.Second},
			CacheTTL:        Duration{time.Hour},
			AllowFile:       true,
			BreakerFailures: 5,
			BreakerCooldown: Duration{30 * time.Second},
		},
		Output: OutputConfig{Dir: "."},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              "8080",
			RequestsPerSecond: 10,
			Burst:             20,
			RunTimeout:        Duration{time.Minute},
		},
	}
}
