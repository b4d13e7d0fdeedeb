// Package config loads the storefront service configuration from defaults,
// an optional YAML file, an optional .env file and STOREFRONT_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STOREFRONT"

// Config holds the service configuration.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogPretty   bool   `mapstructure:"log_pretty"`
	Port        int    `mapstructure:"port"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	APIBaseURL     string        `mapstructure:"api_base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`

	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	PageSize        int           `mapstructure:"page_size"`
	CartChannel     string        `mapstructure:"cart_channel"`
	WarmCategories  bool          `mapstructure:"warm_categories"`
	WarmConcurrency int           `mapstructure:"warm_concurrency"`
}

var defaults = map[string]any{
	"environment":      "development",
	"log_level":        "info",
	"log_pretty":       false,
	"port":             8080,
	"redis_addr":       "localhost:6379",
	"redis_password":   "",
	"redis_db":         0,
	"api_base_url":     "http://localhost:5001",
	"user_agent":       "beauty-storefront/1.0",
	"request_timeout":  "10s",
	"max_retries":      2,
	"initial_backoff":  "250ms",
	"cache_ttl":        "1h",
	"sweep_interval":   "10m",
	"page_size":        20,
	"cart_channel":     "storefront:cart",
	"warm_categories":  false,
	"warm_concurrency": 2,
}

// Options selects the optional files read by Load.
type Options struct {
	ConfigFile string // YAML file, skipped when empty
	EnvFile    string // .env file, skipped when empty or missing
}

// Load builds the configuration. An explicit config file that cannot be read
// is an error; a missing .env file is not.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.EnvFile != "" {
		if err := applyEnvFile(v, opts.EnvFile); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// applyEnvFile copies STOREFRONT_* entries of a .env file into v. Variables
// already present in the process environment win.
func applyEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	prefix := EnvPrefix + "_"
	for name, value := range values {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(strings.ToLower(strings.TrimPrefix(name, prefix)), value)
	}
	return nil
}

// Validate reports configuration the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIBaseURL) == "" {
		errs = append(errs, errors.New("api_base_url is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries cannot be negative, got %d", c.MaxRetries))
	}
	return errors.Join(errs...)
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
