package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Store    StoreConfig    `mapstructure:"store"`
	Search   SearchConfig   `mapstructure:"search"`
	Trending TrendingConfig `mapstructure:"trending"`
	Radarr   RadarrConfig   `mapstructure:"radarr"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Update   UpdateConfig   `mapstructure:"update"`
}

// TMDBConfig holds the movie catalog API connection details
type TMDBConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Token        string        `mapstructure:"token"`
	ImageBaseURL string        `mapstructure:"image_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Store backends
const (
	BackendAppwrite = "appwrite"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// StoreConfig selects and configures the trending document store
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Appwrite AppwriteConfig `mapstructure:"appwrite"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// AppwriteConfig holds Appwrite database connection details
type AppwriteConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	ProjectID    string `mapstructure:"project_id"`
	APIKey       string `mapstructure:"api_key"`
	DatabaseID   string `mapstructure:"database_id"`
	CollectionID string `mapstructure:"collection_id"`
}

// SQLiteConfig holds the local database file location
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig holds the Postgres connection string
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// SearchConfig contains live search settings
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// TrendingConfig contains trending list settings
type TrendingConfig struct {
	Limit int `mapstructure:"limit"`
}

// RadarrConfig holds Radarr API connection details
type RadarrConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
}

// FilterConfig contains named filter presets
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// UpdateConfig contains self-update settings
type UpdateConfig struct {
	Repository string `mapstructure:"repository"`
}
