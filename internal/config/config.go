// Package config handles configuration loading for FareScout.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Amadeus AmadeusConfig `mapstructure:"amadeus" yaml:"amadeus"`
	FX      FXConfig      `mapstructure:"fx"      yaml:"fx"`
	Search  SearchConfig  `mapstructure:"search"  yaml:"search"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// AmadeusConfig holds the Amadeus Self-Service API credentials and endpoint.
type AmadeusConfig struct {
	ClientID     string `mapstructure:"client_id"     yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	BaseURL      string `mapstructure:"base_url"      yaml:"base_url"` // test or production endpoint
}

// FXConfig holds foreign-exchange source settings.
type FXConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "exchangerate" or "ecb"
}

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	PageSize           int `mapstructure:"page_size"            yaml:"page_size"`
	CatalogRatePerSec  int `mapstructure:"catalog_rate_per_sec" yaml:"catalog_rate_per_sec"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.farescout/config.yaml (home directory)
//  3. /etc/farescout/config.yaml (system)
//
// Environment variables override config file values.
// Format: FARESCOUT_<SECTION>_<KEY>, e.g., FARESCOUT_API_PORT
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".farescout"))
	v.AddConfigPath("/etc/farescout")

	// Environment variable settings
	v.SetEnvPrefix("FARESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override sensitive values from environment
	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("FARESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Amadeus defaults: credentials come from env or file, never hardcoded.
	v.SetDefault("amadeus.base_url", "https://test.api.amadeus.com")

	// FX defaults
	v.SetDefault("fx.provider", "exchangerate")

	// Search defaults
	v.SetDefault("search.page_size", 10)
	v.SetDefault("search.catalog_rate_per_sec", 1)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if id := os.Getenv("AMADEUS_CLIENT_ID"); id != "" {
		cfg.Amadeus.ClientID = id
	}
	if secret := os.Getenv("AMADEUS_CLIENT_SECRET"); secret != "" {
		cfg.Amadeus.ClientSecret = secret
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
