package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Scraper    ScraperConfig    `mapstructure:"scraper"`
	Proxy      ProxyConfig      `mapstructure:"proxy"`
	Output     OutputConfig     `mapstructure:"output"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// BrowserConfig holds Chrome session settings. Timeouts are in seconds.
type BrowserConfig struct {
	Headless            bool    `mapstructure:"headless"`
	NoSandbox           bool    `mapstructure:"no_sandbox"`
	Bin                 string  `mapstructure:"bin"`
	RemoteURL           string  `mapstructure:"remote_url"`
	UserAgent           string  `mapstructure:"user_agent"`
	WindowWidth         int     `mapstructure:"window_width"`
	WindowHeight        int     `mapstructure:"window_height"`
	PageLoadTimeout     float64 `mapstructure:"page_load_timeout"`
	FormTimeout         float64 `mapstructure:"form_timeout"`
	MaxActionsPerSecond int     `mapstructure:"max_actions_per_second"`
}

// ScraperConfig holds the traversal settings. Delays and timeouts are in seconds.
type ScraperConfig struct {
	BaseURL         string            `mapstructure:"base_url"`
	MinYear         int               `mapstructure:"min_year"`
	MaxYear         int               `mapstructure:"max_year"`
	MinDelay        float64           `mapstructure:"min_delay"`
	MaxDelay        float64           `mapstructure:"max_delay"`
	ModelExtraDelay float64           `mapstructure:"model_extra_delay"`
	OptionTimeout   float64           `mapstructure:"option_timeout"`
	MinOptions      int               `mapstructure:"min_options"`
	SelectAttempts  int               `mapstructure:"select_attempts"`
	SelectBackoff   float64           `mapstructure:"select_backoff"`
	Placeholder     string            `mapstructure:"placeholder"`
	Controls        map[string]string `mapstructure:"controls"`
}

type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	File     string   `mapstructure:"file"`
	Proxies  []string `mapstructure:"proxies"`
	Validate bool     `mapstructure:"validate"`
	TestURL  string   `mapstructure:"test_url"`
}

type OutputConfig struct {
	CSV string `mapstructure:"csv"`
}

type CheckpointConfig struct {
	Backend string `mapstructure:"backend"` // file or redis
	Path    string `mapstructure:"path"`
	Key     string `mapstructure:"key"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// flagKeys binds CLI flags to config keys.
var flagKeys = map[string]string{
	"headless":   "browser.headless",
	"use-proxy":  "proxy.enabled",
	"proxy-file": "proxy.file",
	"output":     "output.csv",
	"min-delay":  "scraper.min_delay",
	"max-delay":  "scraper.max_delay",
	"checkpoint": "checkpoint.path",
	"log-level":  "log.level",
}

// Load loads configuration from an optional YAML file, environment variables
// (HARVESTER_ prefix) and CLI flags, in increasing order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	configFile := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("harvester")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
		if noHeadless, err := flags.GetBool("no-headless"); err == nil && noHeadless {
			v.Set("browser.headless", false)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.page_load_timeout", 30)
	v.SetDefault("browser.form_timeout", 20)
	v.SetDefault("browser.max_actions_per_second", 5)

	v.SetDefault("scraper.base_url", "https://www.sylvania-automotive.com/")
	v.SetDefault("scraper.min_year", 2018)
	v.SetDefault("scraper.max_year", 2025)
	v.SetDefault("scraper.min_delay", 3.0)
	v.SetDefault("scraper.max_delay", 7.0)
	v.SetDefault("scraper.model_extra_delay", 1.0)
	v.SetDefault("scraper.option_timeout", 15)
	v.SetDefault("scraper.min_options", 2)
	v.SetDefault("scraper.select_attempts", 3)
	v.SetDefault("scraper.select_backoff", 2)
	v.SetDefault("scraper.placeholder", "Please Select")
	v.SetDefault("scraper.controls", map[string]string{
		"year":     "bulbFinderYear",
		"make":     "bulbFinderMake",
		"model":    "bulbFinderModel",
		"position": "bulbFinderPositions",
	})

	v.SetDefault("proxy.enabled", false)
	v.SetDefault("proxy.file", "proxies.txt")
	v.SetDefault("proxy.validate", true)
	v.SetDefault("proxy.test_url", "")

	v.SetDefault("output.csv", "sylvania_fitment_data.csv")

	v.SetDefault("checkpoint.backend", "file")
	v.SetDefault("checkpoint.path", "scraping_progress.json")
	v.SetDefault("checkpoint.key", "bulbfinder:progress:checkpoint")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "bulbfinder")
	v.SetDefault("database.user", "bulbfinder_user")
	v.SetDefault("database.password", "bulbfinder_pass")
}

func (c *Config) Validate() error {
	s := c.Scraper
	if s.BaseURL == "" {
		return errors.New("scraper.base_url must be set")
	}
	if s.MinDelay < 0 || s.MaxDelay < s.MinDelay {
		return fmt.Errorf("invalid delay range %.1f-%.1f seconds", s.MinDelay, s.MaxDelay)
	}
	if s.MinYear > s.MaxYear {
		return fmt.Errorf("invalid year range %d-%d", s.MinYear, s.MaxYear)
	}
	if s.SelectAttempts < 1 {
		return fmt.Errorf("scraper.select_attempts must be at least 1, got %d", s.SelectAttempts)
	}
	switch c.Checkpoint.Backend {
	case "file":
		if c.Checkpoint.Path == "" {
			return errors.New("checkpoint.path must be set for the file backend")
		}
	case "redis":
	default:
		return fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	if c.Output.CSV == "" {
		return errors.New("output.csv must be set")
	}
	return nil
}

// Seconds converts a config value in seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
