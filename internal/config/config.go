package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"dealhive/internal/types"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig `mapstructure:"server"`
	Scraper types.Config `mapstructure:"scraper"`
	Log     LogConfig    `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var knownStores = map[string]bool{
	"amazon":   true,
	"flipkart": true,
	"reliance": true,
	"croma":    true,
}

// Load loads configuration from .env, an optional config file and
// DEALHIVE_* environment variables, in increasing precedence
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// DEALHIVE_SCRAPER_STORE_TIMEOUT maps to scraper.store_timeout
	v.SetEnvPrefix("DEALHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := types.DefaultConfig()

	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Scraper defaults
	v.SetDefault("scraper.request_timeout", defaults.RequestTimeout)
	v.SetDefault("scraper.store_timeout", defaults.StoreTimeout)
	v.SetDefault("scraper.max_results_per_store", defaults.MaxResultsPerStore)
	v.SetDefault("scraper.max_results", defaults.MaxResults)
	v.SetDefault("scraper.pace_requests", defaults.PaceRequests)
	v.SetDefault("scraper.use_headless_browser", defaults.UseHeadlessBrowser)
	v.SetDefault("scraper.user_agent", defaults.UserAgent)
	v.SetDefault("scraper.currency", defaults.Currency)
	v.SetDefault("scraper.stores", defaults.Stores)
	v.SetDefault("scraper.group_similarity", defaults.GroupSimilarity)

	// Log defaults
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	s := config.Scraper

	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %v", s.RequestTimeout)
	}
	if s.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive, got: %v", s.StoreTimeout)
	}
	if s.MaxResultsPerStore <= 0 {
		return fmt.Errorf("max results per store must be positive, got: %d", s.MaxResultsPerStore)
	}
	if s.MaxResults < 0 {
		return fmt.Errorf("max results cannot be negative, got: %d", s.MaxResults)
	}
	if s.GroupSimilarity < 0 || s.GroupSimilarity > 1 {
		return fmt.Errorf("group similarity must be within [0, 1], got: %v", s.GroupSimilarity)
	}
	if len(s.Stores) == 0 {
		return fmt.Errorf("at least one store must be enabled (set DEALHIVE_SCRAPER_STORES)")
	}
	for i, store := range s.Stores {
		key := strings.ToLower(strings.TrimSpace(store))
		if !knownStores[key] {
			return fmt.Errorf("%w: %s", types.ErrUnknownStore, store)
		}
		s.Stores[i] = key
	}

	return nil
}
