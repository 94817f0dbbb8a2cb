package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validate
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Environment:     "development",
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			FetchTimeout: 10 * time.Second,
			MaxRetries:   3,
			RetryDelay:   500 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
			Key:     "glutenvergelijker:catalog:v2",
		},
		Storage:   StorageConfig{Type: "memory"},
		Favorites: FavoritesConfig{Key: "glutenvergelijker:favorites:v1"},
		Filter: FilterConfig{
			PageSize:        24,
			DefaultMaxPrice: 20,
			SearchDebounce:  300 * time.Millisecond,
			TopBrands:       5,
		},
		Log: LogConfig{Level: "info", Format: "json", MaxSizeMB: 50},
	}
}

func TestLoad(t *testing.T) {
	// Run from an empty directory so no config.yaml or .env is picked up
	t.Chdir(t.TempDir())

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Catalog.SourceURL != "" {
			t.Errorf("Catalog.SourceURL = %s, want empty", cfg.Catalog.SourceURL)
		}
		if cfg.Catalog.MaxRetries != 3 {
			t.Errorf("Catalog.MaxRetries = %d, want 3", cfg.Catalog.MaxRetries)
		}
		if !cfg.Cache.Enabled {
			t.Error("Cache.Enabled = false, want true")
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Cache.Key != "glutenvergelijker:catalog:v2" {
			t.Errorf("Cache.Key = %s, want glutenvergelijker:catalog:v2", cfg.Cache.Key)
		}
		if cfg.Storage.Type != "memory" {
			t.Errorf("Storage.Type = %s, want memory", cfg.Storage.Type)
		}
		if cfg.Favorites.Key != "glutenvergelijker:favorites:v1" {
			t.Errorf("Favorites.Key = %s, want glutenvergelijker:favorites:v1", cfg.Favorites.Key)
		}
		if cfg.Filter.PageSize != 24 {
			t.Errorf("Filter.PageSize = %d, want 24", cfg.Filter.PageSize)
		}
		if cfg.Filter.DefaultMaxPrice != 20 {
			t.Errorf("Filter.DefaultMaxPrice = %v, want 20", cfg.Filter.DefaultMaxPrice)
		}
		if cfg.Filter.SearchDebounce != 300*time.Millisecond {
			t.Errorf("Filter.SearchDebounce = %v, want 300ms", cfg.Filter.SearchDebounce)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("GLUTENVERGELIJKER_SERVER_PORT", "9090")
		t.Setenv("GLUTENVERGELIJKER_SERVER_ENVIRONMENT", "production")
		t.Setenv("GLUTENVERGELIJKER_CATALOG_SOURCE_URL", "https://feed.example.com/products.json")
		t.Setenv("GLUTENVERGELIJKER_CATALOG_REFRESH_SCHEDULE", "@every 30m")
		t.Setenv("GLUTENVERGELIJKER_CACHE_TTL", "24h")
		t.Setenv("GLUTENVERGELIJKER_STORAGE_TYPE", "sqlite")
		t.Setenv("GLUTENVERGELIJKER_STORAGE_SQLITE_PATH", "/var/lib/glutenvergelijker/state.db")
		t.Setenv("GLUTENVERGELIJKER_FILTER_PAGE_SIZE", "12")
		t.Setenv("GLUTENVERGELIJKER_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Catalog.SourceURL != "https://feed.example.com/products.json" {
			t.Errorf("Catalog.SourceURL = %s", cfg.Catalog.SourceURL)
		}
		if cfg.Catalog.RefreshSchedule != "@every 30m" {
			t.Errorf("Catalog.RefreshSchedule = %s, want @every 30m", cfg.Catalog.RefreshSchedule)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Storage.Type != "sqlite" {
			t.Errorf("Storage.Type = %s, want sqlite", cfg.Storage.Type)
		}
		if cfg.Filter.PageSize != 12 {
			t.Errorf("Filter.PageSize = %d, want 12", cfg.Filter.PageSize)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
	})

	t.Run("fails validation for invalid storage type", func(t *testing.T) {
		t.Setenv("GLUTENVERGELIJKER_STORAGE_TYPE", "redis")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for invalid storage type")
		}
		if !strings.Contains(err.Error(), "storage.type") {
			t.Errorf("Load() error = %v, want it to name storage.type", err)
		}
	})

	t.Run("fails validation for invalid refresh schedule", func(t *testing.T) {
		t.Setenv("GLUTENVERGELIJKER_CATALOG_REFRESH_SCHEDULE", "every now and then")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid schedule")
		}
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	yaml := `
server:
  port: "7070"
catalog:
  file_path: data/products.json
  watch_file: true
filter:
  default_max_price: 35
`
	if err := os.WriteFile("config.yaml", []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to create config.yaml: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
	}
	if cfg.Catalog.FilePath != "data/products.json" || !cfg.Catalog.WatchFile {
		t.Errorf("Catalog = %+v, want file path with watching", cfg.Catalog)
	}
	if cfg.Filter.DefaultMaxPrice != 35 {
		t.Errorf("Filter.DefaultMaxPrice = %v, want 35", cfg.Filter.DefaultMaxPrice)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		t.Chdir(t.TempDir())

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		for _, key := range []string{"TEST_VAR_1", "TEST_VAR_2", "TEST_VAR_3"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "validates successfully with defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "fails for non-numeric port",
			mutate:  func(c *Config) { c.Server.Port = "http" },
			wantErr: true,
		},
		{
			name:    "fails for unknown environment",
			mutate:  func(c *Config) { c.Server.Environment = "staging" },
			wantErr: true,
		},
		{
			name:    "fails for malformed source url",
			mutate:  func(c *Config) { c.Catalog.SourceURL = "not a url" },
			wantErr: true,
		},
		{
			name:    "fails for zero page size",
			mutate:  func(c *Config) { c.Filter.PageSize = 0 },
			wantErr: true,
		},
		{
			name:    "fails for non-positive max price",
			mutate:  func(c *Config) { c.Filter.DefaultMaxPrice = 0 },
			wantErr: true,
		},
		{
			name:    "fails for unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name: "validates sqlite storage with path",
			mutate: func(c *Config) {
				c.Storage.Type = "sqlite"
				c.Storage.SQLitePath = "state.db"
			},
		},
		{
			name:    "fails for sqlite storage without path",
			mutate:  func(c *Config) { c.Storage.Type = "sqlite" },
			wantErr: true,
		},
		{
			name:    "fails for watching without a file",
			mutate:  func(c *Config) { c.Catalog.WatchFile = true },
			wantErr: true,
		},
		{
			name:   "accepts standard cron schedules",
			mutate: func(c *Config) { c.Catalog.RefreshSchedule = "0 */6 * * *" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
