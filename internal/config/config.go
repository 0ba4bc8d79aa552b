package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values, used for any key absent from the
// config file (or when no config file exists at all).
const (
	DefaultDBFile     = "ajp_data.db"
	DefaultMaxWorkers = 16
	DefaultTimeout    = 10
	DefaultMaxEvents  = 1302
	DefaultBaseURL    = "https://ajptour.com/en/event"
	DefaultDataDir    = "data"
	DefaultLogFile    = "scraper.log"
)

// Config is the full harvester configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	File string `mapstructure:"file"`
}

// ScraperConfig drives the harvesting run.
type ScraperConfig struct {
	MaxWorkers     int    `mapstructure:"max_workers"`
	TimeoutSeconds int    `mapstructure:"timeout"`
	MaxEvents      int    `mapstructure:"max_events"`
	BaseURL        string `mapstructure:"base_url"`
	DataDir        string `mapstructure:"data_dir"`
}

// LogConfig configures the operational log stream.
type LogConfig struct {
	File string `mapstructure:"file"`
}

// Timeout returns the per-fetch timeout as a duration.
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Load reads configuration from path (a JSON file). A missing file is
// not an error: defaults apply. A malformed file is reported so the
// caller can warn, with defaults returned alongside.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		// Keep running on defaults; only surface the reason.
		readErr = fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Defaults()
	if readErr == nil {
		if err := v.Unmarshal(cfg); err != nil {
			return Defaults(), fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return cfg, readErr
}

// Defaults returns a Config populated entirely with default values.
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{File: DefaultDBFile},
		Scraper: ScraperConfig{
			MaxWorkers:     DefaultMaxWorkers,
			TimeoutSeconds: DefaultTimeout,
			MaxEvents:      DefaultMaxEvents,
			BaseURL:        DefaultBaseURL,
			DataDir:        DefaultDataDir,
		},
		Log: LogConfig{File: DefaultLogFile},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.file", DefaultDBFile)
	v.SetDefault("scraper.max_workers", DefaultMaxWorkers)
	v.SetDefault("scraper.timeout", DefaultTimeout)
	v.SetDefault("scraper.max_events", DefaultMaxEvents)
	v.SetDefault("scraper.base_url", DefaultBaseURL)
	v.SetDefault("scraper.data_dir", DefaultDataDir)
	v.SetDefault("log.file", DefaultLogFile)
}
