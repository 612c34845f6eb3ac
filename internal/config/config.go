package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Project store backends.
const (
	StoreJSON     = "json"
	StorePostgres = "postgres"
)

// Config holds all backend configuration.
type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Database  DatabaseConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          string
	Env           string
	PublicDir     string
	IndexTemplate string
	MapsAPIKey    string
}

// DatasetConfig selects where project data is read from.
type DatasetConfig struct {
	Store   string
	DataDir string
}

// DatabaseConfig holds PostgreSQL connection configuration.
// Only consulted when the dataset store is postgres.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// SearchConfig bounds the result cap of the search endpoint.
type SearchConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// RateLimitConfig configures per-client request throttling.
// A zero RPS disables the limiter.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads backend configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("PUBLIC_DIR", "public")
	v.SetDefault("INDEX_TEMPLATE", "views/index.html")
	v.SetDefault("GMAP_APIKEY", "YOUR_API_KEY")
	v.SetDefault("PROJECT_STORE", StoreJSON)
	v.SetDefault("DATA_DIR", "public/data")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "projectmap")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("SEARCH_DEFAULT_LIMIT", 50)
	v.SetDefault("SEARCH_MAX_LIMIT", 500)
	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:          v.GetString("PORT"),
			Env:           v.GetString("ENV"),
			PublicDir:     v.GetString("PUBLIC_DIR"),
			IndexTemplate: v.GetString("INDEX_TEMPLATE"),
			MapsAPIKey:    v.GetString("GMAP_APIKEY"),
		},
		Dataset: DatasetConfig{
			Store:   strings.ToLower(strings.TrimSpace(v.GetString("PROJECT_STORE"))),
			DataDir: v.GetString("DATA_DIR"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		Search: SearchConfig{
			DefaultLimit: v.GetInt("SEARCH_DEFAULT_LIMIT"),
			MaxLimit:     v.GetInt("SEARCH_MAX_LIMIT"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("CORS_ORIGINS")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.PublicDir == "" {
		return fmt.Errorf("PUBLIC_DIR is required")
	}

	switch c.Dataset.Store {
	case StoreJSON:
		if c.Dataset.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the json store")
		}
	case StorePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("PROJECT_STORE must be %q or %q, got %q", StoreJSON, StorePostgres, c.Dataset.Store)
	}

	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("SEARCH_DEFAULT_LIMIT must be at least 1")
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("SEARCH_MAX_LIMIT must be greater than or equal to SEARCH_DEFAULT_LIMIT")
	}

	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be non-negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// Validate checks the PostgreSQL settings.
func (d DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// splitList splits a comma-separated string into trimmed, non-empty parts.
func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ClientConfig configures the browsing pipeline.
type ClientConfig struct {
	ServerURL             string
	ResultLimit           int
	Debounce              time.Duration
	RequestTimeout        time.Duration
	DefaultLocationID     string
	DefaultPropertyTypes  []string
	DefaultBuildingStatus []string
	LogFile               string
	Env                   string
}

// LoadClient reads the browsing pipeline configuration from PROJECTMAP_*
// environment variables.
func LoadClient() (*ClientConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("PROJECTMAP")

	v.SetDefault("SERVER_URL", "http://localhost:3000")
	v.SetDefault("RESULT_LIMIT", 100)
	v.SetDefault("DEBOUNCE", "300ms")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("DEFAULT_LOCATION", "1")
	v.SetDefault("DEFAULT_PROPERTY_TYPES", "2")
	v.SetDefault("DEFAULT_BUILDING_STATUS", "1")
	v.SetDefault("LOG_FILE", "projectmap.log")
	v.SetDefault("ENV", "production")

	v.AutomaticEnv()

	cfg := &ClientConfig{
		ServerURL:             strings.TrimRight(v.GetString("SERVER_URL"), "/"),
		ResultLimit:           v.GetInt("RESULT_LIMIT"),
		Debounce:              v.GetDuration("DEBOUNCE"),
		RequestTimeout:        v.GetDuration("REQUEST_TIMEOUT"),
		DefaultLocationID:     strings.TrimSpace(v.GetString("DEFAULT_LOCATION")),
		DefaultPropertyTypes:  splitList(v.GetString("DEFAULT_PROPERTY_TYPES")),
		DefaultBuildingStatus: splitList(v.GetString("DEFAULT_BUILDING_STATUS")),
		LogFile:               v.GetString("LOG_FILE"),
		Env:                   v.GetString("ENV"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the client settings.
func (c *ClientConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("PROJECTMAP_SERVER_URL is required")
	}
	if c.ResultLimit < 1 {
		return fmt.Errorf("PROJECTMAP_RESULT_LIMIT must be at least 1")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("PROJECTMAP_DEBOUNCE must be non-negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("PROJECTMAP_REQUEST_TIMEOUT must be positive")
	}
	return nil
}
