package config

import (
	"testing"
	"time"
)

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("Expected port 3000, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Dataset.Store != StoreJSON {
		t.Errorf("Expected json store, got %s", cfg.Dataset.Store)
	}
	if cfg.Dataset.DataDir != "public/data" {
		t.Errorf("Expected data dir public/data, got %s", cfg.Dataset.DataDir)
	}
	if cfg.Search.DefaultLimit != 50 {
		t.Errorf("Expected default limit 50, got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Search.MaxLimit != 500 {
		t.Errorf("Expected max limit 500, got %d", cfg.Search.MaxLimit)
	}
	if cfg.Server.MapsAPIKey != "YOUR_API_KEY" {
		t.Errorf("Expected placeholder maps key, got %s", cfg.Server.MapsAPIKey)
	}
	if len(cfg.CORS.Origins) != 1 {
		t.Errorf("Expected 1 CORS origin, got %d", len(cfg.CORS.Origins))
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("PROJECT_STORE", "POSTGRES")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SEARCH_DEFAULT_LIMIT", "25")
	t.Setenv("SEARCH_MAX_LIMIT", "200")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("GMAP_APIKEY", "abc123")
	t.Setenv("CORS_ORIGINS", "http://example.com, https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Dataset.Store != StorePostgres {
		t.Errorf("Expected postgres store, got %s", cfg.Dataset.Store)
	}
	if cfg.Database.Host != "db" {
		t.Errorf("Expected host db, got %s", cfg.Database.Host)
	}
	if cfg.Search.DefaultLimit != 25 || cfg.Search.MaxLimit != 200 {
		t.Errorf("Expected limits 25/200, got %d/%d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.RateLimit.RPS != 0 {
		t.Errorf("Expected rate limiting disabled, got %f", cfg.RateLimit.RPS)
	}
	if cfg.Server.MapsAPIKey != "abc123" {
		t.Errorf("Expected maps key abc123, got %s", cfg.Server.MapsAPIKey)
	}
	if len(cfg.CORS.Origins) != 2 || cfg.CORS.Origins[1] != "https://app.example.com" {
		t.Errorf("Unexpected CORS origins %v", cfg.CORS.Origins)
	}
}

func TestLoad_PostgresWithoutPassword(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("PROJECT_STORE", "postgres")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DB_PASSWORD is missing for the postgres store")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "3000", Env: "development", PublicDir: "public"},
			Dataset:   DatasetConfig{Store: StoreJSON, DataDir: "public/data"},
			Search:    SearchConfig{DefaultLimit: 50, MaxLimit: 500},
			RateLimit: RateLimitConfig{RPS: 10, Burst: 20},
			CORS:      CORSConfig{Origins: []string{"http://localhost:3000"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid json config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{name: "missing public dir", mutate: func(c *Config) { c.Server.PublicDir = "" }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.Dataset.Store = "redis" }, wantErr: true},
		{name: "json store without data dir", mutate: func(c *Config) { c.Dataset.DataDir = "" }, wantErr: true},
		{name: "zero default limit", mutate: func(c *Config) { c.Search.DefaultLimit = 0 }, wantErr: true},
		{name: "max below default", mutate: func(c *Config) { c.Search.MaxLimit = 10 }, wantErr: true},
		{name: "negative rps", mutate: func(c *Config) { c.RateLimit.RPS = -1 }, wantErr: true},
		{name: "zero burst with limiter on", mutate: func(c *Config) { c.RateLimit.Burst = 0 }, wantErr: true},
		{name: "zero burst with limiter off", mutate: func(c *Config) { c.RateLimit = RateLimitConfig{} }, wantErr: false},
		{name: "missing CORS origins", mutate: func(c *Config) { c.CORS.Origins = nil }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_InvalidPoolSizes(t *testing.T) {
	tests := []struct {
		name    string
		poolMin int
		poolMax int
		wantErr bool
	}{
		{name: "negative pool min", poolMin: -1, poolMax: 10, wantErr: true},
		{name: "zero pool max", poolMin: 0, poolMax: 0, wantErr: true},
		{name: "pool min greater than max", poolMin: 15, poolMax: 10, wantErr: true},
		{name: "valid pool sizes", poolMin: 2, poolMax: 10, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := DatabaseConfig{
				Host: "localhost", Port: "5432", Name: "projectmap",
				User: "postgres", Password: "postgres",
				PoolMin: tt.poolMin, PoolMax: tt.poolMax,
			}
			err := db.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "single value", input: "2", expect: []string{"2"}},
		{name: "multiple values", input: "1,2,3", expect: []string{"1", "2", "3"}},
		{name: "values with spaces", input: " 1 , 2 ", expect: []string{"1", "2"}},
		{name: "empty string", input: "", expect: []string{}},
		{name: "only commas", input: ",,,", expect: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitList(tt.input)
			if len(result) != len(tt.expect) {
				t.Fatalf("Expected %d values, got %d", len(tt.expect), len(result))
			}
			for i, v := range result {
				if v != tt.expect[i] {
					t.Errorf("Expected %s at index %d, got %s", tt.expect[i], i, v)
				}
			}
		})
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	clearClientEnvVars(t)

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() failed: %v", err)
	}

	if cfg.ServerURL != "http://localhost:3000" {
		t.Errorf("Expected default server URL, got %s", cfg.ServerURL)
	}
	if cfg.ResultLimit != 100 {
		t.Errorf("Expected result limit 100, got %d", cfg.ResultLimit)
	}
	if cfg.Debounce != 300*time.Millisecond {
		t.Errorf("Expected 300ms debounce, got %s", cfg.Debounce)
	}
	if cfg.DefaultLocationID != "1" {
		t.Errorf("Expected default location 1, got %s", cfg.DefaultLocationID)
	}
	if len(cfg.DefaultPropertyTypes) != 1 || cfg.DefaultPropertyTypes[0] != "2" {
		t.Errorf("Expected default property types [2], got %v", cfg.DefaultPropertyTypes)
	}
	if len(cfg.DefaultBuildingStatus) != 1 || cfg.DefaultBuildingStatus[0] != "1" {
		t.Errorf("Expected default building status [1], got %v", cfg.DefaultBuildingStatus)
	}
}

func TestLoadClient_WithEnvironmentVariables(t *testing.T) {
	clearClientEnvVars(t)
	t.Setenv("PROJECTMAP_SERVER_URL", "http://maps.internal:8080/")
	t.Setenv("PROJECTMAP_RESULT_LIMIT", "20")
	t.Setenv("PROJECTMAP_DEBOUNCE", "150ms")
	t.Setenv("PROJECTMAP_DEFAULT_PROPERTY_TYPES", "1,2")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() failed: %v", err)
	}

	if cfg.ServerURL != "http://maps.internal:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.ServerURL)
	}
	if cfg.ResultLimit != 20 {
		t.Errorf("Expected result limit 20, got %d", cfg.ResultLimit)
	}
	if cfg.Debounce != 150*time.Millisecond {
		t.Errorf("Expected 150ms debounce, got %s", cfg.Debounce)
	}
	if len(cfg.DefaultPropertyTypes) != 2 {
		t.Errorf("Expected 2 default property types, got %v", cfg.DefaultPropertyTypes)
	}
}

func TestLoadClient_InvalidLimit(t *testing.T) {
	clearClientEnvVars(t)
	t.Setenv("PROJECTMAP_RESULT_LIMIT", "0")

	if _, err := LoadClient(); err == nil {
		t.Error("Expected error for zero result limit")
	}
}

// clearConfigEnvVars blanks every backend variable for the duration of the test.
// Viper ignores empty environment values, so defaults apply.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "PUBLIC_DIR", "INDEX_TEMPLATE", "GMAP_APIKEY",
		"PROJECT_STORE", "DATA_DIR",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_POOL_MIN", "DB_POOL_MAX",
		"SEARCH_DEFAULT_LIMIT", "SEARCH_MAX_LIMIT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func clearClientEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_URL", "RESULT_LIMIT", "DEBOUNCE", "REQUEST_TIMEOUT",
		"DEFAULT_LOCATION", "DEFAULT_PROPERTY_TYPES", "DEFAULT_BUILDING_STATUS",
		"LOG_FILE", "ENV",
	} {
		t.Setenv("PROJECTMAP_"+key, "")
	}
}
