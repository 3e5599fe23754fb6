package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override
const EnvPrefix = "REELSCOUT"

// envAliases maps config keys to the environment names used by the mobile app
var envAliases = map[string]string{
	"tmdb.token":                   "EXPO_PUBLIC_MOVIE_API_KEY",
	"store.appwrite.project_id":    "EXPO_PUBLIC_APPWRITE_PROJECT_ID",
	"store.appwrite.database_id":   "EXPO_PUBLIC_APPWRITE_DATABASE_ID",
	"store.appwrite.collection_id": "EXPO_PUBLIC_APPWRITE_COLLECTION_ID",
}

// keys without a default still need binding so the environment can set them
var unsetKeys = []string{
	"tmdb.token",
	"store.appwrite.project_id",
	"store.appwrite.api_key",
	"store.appwrite.database_id",
	"store.appwrite.collection_id",
	"store.postgres.dsn",
	"radarr.api_key",
}

// Load loads the configuration from file and environment. When configPath
// is empty the standard locations are searched and a missing file is fine.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// Set default values
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".reelscout"))
		}

		// Check /etc
		v.AddConfigPath("/etc/reelscout/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindEnv wires REELSCOUT_* overrides and the mobile app aliases
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range unsetKeys {
		names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if alias, ok := envAliases[key]; ok {
			names = append(names, alias)
		}
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("error binding %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Catalog defaults
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("tmdb.timeout", "30s")

	// Store defaults
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.appwrite.endpoint", "https://cloud.appwrite.io/v1")
	v.SetDefault("store.sqlite.path", "reelscout.db")

	// Search defaults
	v.SetDefault("search.debounce", "500ms")
	v.SetDefault("trending.limit", 3)

	// Radarr defaults
	v.SetDefault("radarr.enabled", false)
	v.SetDefault("radarr.url", "http://localhost:7878")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	v.SetDefault("update.repository", "s0up4200/reelscout")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.TMDB.Token == "" || cfg.TMDB.Token == "your-token-here" {
		return fmt.Errorf("tmdb.token must be set to a valid API read access token")
	}

	if cfg.TMDB.BaseURL == "" {
		return fmt.Errorf("tmdb.base_url is required")
	}

	if err := validateStore(&cfg.Store); err != nil {
		return err
	}

	if cfg.Search.Debounce <= 0 {
		return fmt.Errorf("search.debounce must be greater than 0")
	}

	if cfg.Trending.Limit < 0 {
		return fmt.Errorf("trending.limit must not be negative")
	}

	if cfg.Radarr.Enabled {
		if cfg.Radarr.URL == "" {
			return fmt.Errorf("radarr.url is required when radarr is enabled")
		}
		if cfg.Radarr.APIKey == "" || cfg.Radarr.APIKey == "your-api-key-here" {
			return fmt.Errorf("radarr.api_key must be set to a valid API key")
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

func validateStore(cfg *StoreConfig) error {
	switch cfg.Backend {
	case BackendAppwrite:
		aw := cfg.Appwrite
		switch {
		case aw.ProjectID == "":
			return fmt.Errorf("store.appwrite.project_id is required")
		case aw.DatabaseID == "":
			return fmt.Errorf("store.appwrite.database_id is required")
		case aw.CollectionID == "":
			return fmt.Errorf("store.appwrite.collection_id is required")
		}
	case BackendSQLite:
		if cfg.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path is required")
		}
	case BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid store backend: %s (must be appwrite, sqlite, postgres or memory)", cfg.Backend)
	}
	return nil
}
