// Package config provides Viper-based configuration management for reelscout
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete reelscout configuration
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Output    OutputConfig    `mapstructure:"output"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// ProvidersConfig holds credentials and endpoints per provider
type ProvidersConfig struct {
	HikerAPI HikerAPIConfig `mapstructure:"hikerapi"`
	Lamatok  LamatokConfig  `mapstructure:"lamatok"`
}

// HikerAPIConfig configures the Instagram provider
type HikerAPIConfig struct {
	Token         string  `mapstructure:"token"`
	BaseURL       string  `mapstructure:"base_url"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// LamatokConfig configures the TikTok provider
type LamatokConfig struct {
	Key           string  `mapstructure:"key"`
	BaseURL       string  `mapstructure:"base_url"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	PageSize      int     `mapstructure:"page_size"`
}

// HTTPConfig contains outbound HTTP settings
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultsConfig seeds request fields the caller leaves unset
type DefaultsConfig struct {
	Provider       string `mapstructure:"provider"`
	MaxItems       int    `mapstructure:"max_items"`
	MaxRequests    int    `mapstructure:"max_requests"`
	MaxAgeDays     int    `mapstructure:"max_age_days"`
	IncludeUndated bool   `mapstructure:"include_undated"`
}

// CacheConfig selects the result cache
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	RedisURL   string        `mapstructure:"redis_url"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// Dir returns the configuration directory path.
func Dir() string {
	if dir := os.Getenv("REELSCOUT_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "reelscout")
}

// Load reads configuration from .env, the config file and environment
// variables, in increasing order of precedence.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".reelscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix("REELSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider secrets keep their historical variable names.
	_ = v.BindEnv("providers.hikerapi.token", "REELSCOUT_PROVIDERS_HIKERAPI_TOKEN", "HIKERAPI_TOKEN")
	_ = v.BindEnv("providers.lamatok.key", "REELSCOUT_PROVIDERS_LAMATOK_KEY", "LAMATOK_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("providers.hikerapi.token", "")
	v.SetDefault("providers.hikerapi.base_url", "https://api.hikerapi.com")
	v.SetDefault("providers.hikerapi.rate_per_second", 0)
	v.SetDefault("providers.lamatok.key", "")
	v.SetDefault("providers.lamatok.base_url", "https://api.lamatok.com")
	v.SetDefault("providers.lamatok.rate_per_second", 0)
	v.SetDefault("providers.lamatok.page_size", 30)

	v.SetDefault("http.timeout", 40*time.Second)

	v.SetDefault("defaults.provider", "instagram")
	v.SetDefault("defaults.max_items", 50)
	v.SetDefault("defaults.max_requests", 10)
	v.SetDefault("defaults.max_age_days", 365)
	v.SetDefault("defaults.include_undated", true)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.max_entries", 256)
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("output.colors", true)
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	validProviders := map[string]bool{"instagram": true, "tiktok": true}
	if !validProviders[cfg.Defaults.Provider] {
		return fmt.Errorf("invalid default provider: %s (must be instagram or tiktok)", cfg.Defaults.Provider)
	}

	if cfg.Defaults.MaxItems < 1 || cfg.Defaults.MaxRequests < 1 {
		return fmt.Errorf("defaults.max_items and defaults.max_requests must be at least 1")
	}
	if cfg.Defaults.MaxAgeDays < 0 {
		return fmt.Errorf("defaults.max_age_days must not be negative")
	}

	validBackends := map[string]bool{"none": true, "memory": true, "redis": true}
	if !validBackends[cfg.Cache.Backend] {
		return fmt.Errorf("invalid cache backend: %s (must be none, memory, or redis)", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required for the redis backend")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[cfg.Server.Mode] {
		return fmt.Errorf("invalid server mode: %s (must be debug, release, or test)", cfg.Server.Mode)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", cfg.Logging.Format)
	}

	return nil
}
