package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "GLUTENVERGELIJKER"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Favorites FavoritesConfig `mapstructure:"favorites"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Environment     string        `mapstructure:"environment" validate:"oneof=development test production"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// CatalogConfig describes where the product catalog comes from.
// SourceURL wins over FilePath; with neither set the embedded sample data is served.
type CatalogConfig struct {
	SourceURL         string        `mapstructure:"source_url" validate:"omitempty,url"`
	FilePath          string        `mapstructure:"file_path"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=1,lte=10"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" validate:"gt=0"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gte=0"`
	RefreshSchedule   string        `mapstructure:"refresh_schedule"`
	WatchFile         bool          `mapstructure:"watch_file"`
}

// CacheConfig holds catalog cache configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
	Key     string        `mapstructure:"key" validate:"required"`
}

// StorageConfig selects the key-value store backing cache and favorites
type StorageConfig struct {
	Type       string `mapstructure:"type" validate:"oneof=memory sqlite"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// FavoritesConfig holds favorites persistence configuration
type FavoritesConfig struct {
	Key string `mapstructure:"key" validate:"required"`
}

// FilterConfig holds browsing defaults
type FilterConfig struct {
	PageSize        int           `mapstructure:"page_size" validate:"gte=1,lte=200"`
	DefaultMaxPrice float64       `mapstructure:"default_max_price" validate:"gt=0"`
	SearchDebounce  time.Duration `mapstructure:"search_debounce" validate:"gte=0"`
	TopBrands       int           `mapstructure:"top_brands" validate:"gte=1"`
}

// LogConfig holds logging configuration. An empty File logs to stdout only.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/glutenvergelijker/")

	// Environment variable settings: server.port <- GLUTENVERGELIJKER_SERVER_PORT
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
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

// loadEnvFile loads .env from the working directory. Existing variables win; a missing
// file is not an error.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Catalog defaults
	v.SetDefault("catalog.source_url", "")
	v.SetDefault("catalog.file_path", "")
	v.SetDefault("catalog.fetch_timeout", "10s")
	v.SetDefault("catalog.max_retries", 3)
	v.SetDefault("catalog.retry_delay", "500ms")
	v.SetDefault("catalog.requests_per_minute", 30)
	v.SetDefault("catalog.refresh_schedule", "")
	v.SetDefault("catalog.watch_file", false)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.key", "glutenvergelijker:catalog:v2")

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.sqlite_path", "glutenvergelijker.db")

	// Favorites defaults
	v.SetDefault("favorites.key", "glutenvergelijker:favorites:v1")

	// Filter defaults
	v.SetDefault("filter.page_size", 24)
	v.SetDefault("filter.default_max_price", 20.0)
	v.SetDefault("filter.search_debounce", "300ms")
	v.SetDefault("filter.top_brands", 5)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

// newValidator reports field errors by their config key instead of the Go field name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate validates the configuration
func validate(config *Config) error {
	if err := newValidator().Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("%s failed '%s' check (value: %v)", first.Namespace(), first.Tag(), first.Value())
		}
		return err
	}

	if config.Storage.Type == "sqlite" && config.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required when storage type is 'sqlite'")
	}

	if config.Catalog.WatchFile && config.Catalog.FilePath == "" {
		return fmt.Errorf("catalog file path is required when watch_file is enabled")
	}

	if config.Catalog.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(config.Catalog.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", config.Catalog.RefreshSchedule, err)
		}
	}

	return nil
}
