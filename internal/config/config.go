package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Schedule struct {
	Spec        string   `mapstructure:"spec"`
	Scrapers    []string `mapstructure:"scrapers"`
	DBMode      string   `mapstructure:"db_mode"`
	CombineFull bool     `mapstructure:"combine_full"`
	Limit       int      `mapstructure:"limit"`
	SinceDays   int      `mapstructure:"since_days"`
	Workers     int      `mapstructure:"workers"`
}

type Config struct {
	APIURL          string        `mapstructure:"api_url"`
	Listen          string        `mapstructure:"listen"`
	DBPath          string        `mapstructure:"db_path"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	SearchDebounce  time.Duration `mapstructure:"search_debounce"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	ServiceEmail    string        `mapstructure:"service_email"`
	ServicePassword string        `mapstructure:"service_password"`
	Schedules       []Schedule    `mapstructure:"schedules"`
}

var Default = Config{
	APIURL:         "http://localhost:8000",
	Listen:         ":8080",
	DBPath:         "jobdash.db",
	PollInterval:   5 * time.Second,
	SearchDebounce: 300 * time.Millisecond,
	RequestTimeout: 15 * time.Second,
	SessionTTL:     30 * time.Minute,
}

// Dir returns ~/.jobdash, creating it when missing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	dir := filepath.Join(home, ".jobdash")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}

	return dir, nil
}

func Load() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	viper.SetDefault("api_url", Default.APIURL)
	viper.SetDefault("listen", Default.Listen)
	viper.SetDefault("db_path", filepath.Join(configDir, Default.DBPath))
	viper.SetDefault("poll_interval", Default.PollInterval)
	viper.SetDefault("search_debounce", Default.SearchDebounce)
	viper.SetDefault("request_timeout", Default.RequestTimeout)
	viper.SetDefault("session_ttl", Default.SessionTTL)
	viper.SetDefault("service_email", "")
	viper.SetDefault("service_password", "")

	viper.SetEnvPrefix("JOBDASH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode()
}

// Reload re-reads the current viper state, used after a config file change.
func Reload() (*Config, error) {
	return decode()
}

func decode() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("search_debounce must not be negative, got %s", c.SearchDebounce)
	}
	for i, s := range c.Schedules {
		if s.Spec == "" {
			return fmt.Errorf("schedules[%d]: spec is required", i)
		}
		if len(s.Scrapers) == 0 {
			return fmt.Errorf("schedules[%d]: at least one scraper is required", i)
		}
	}
	return nil
}
