package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for rating-ladder
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Storage StorageConfig `yaml:"storage"`
	Browser BrowserConfig `yaml:"browser"`
	Refresh RefreshConfig `yaml:"refresh"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CatalogConfig points at the problem catalog backend
type CatalogConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects where client progress is kept
type StorageConfig struct {
	Backend       string `yaml:"backend"` // file, bolt, redis, postgres or memory
	Path          string `yaml:"path"`
	RedisAddress  string `yaml:"redis_address"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	DSN           string `yaml:"dsn"`
	MigrationsDir string `yaml:"migrations_dir"`
}

// BrowserConfig tunes the per-client view sessions
type BrowserConfig struct {
	SearchDebounce time.Duration `yaml:"search_debounce"`
}

// RefreshConfig holds distribution refresh configuration
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Catalog: CatalogConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Backend:      "file",
			Path:         "./data/progress.json",
			RedisAddress: "localhost:6379",
		},
		Browser: BrowserConfig{
			SearchDebounce: 300 * time.Millisecond,
		},
		Refresh: RefreshConfig{
			Interval: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration. Values come from, in increasing priority: the
// defaults, the YAML file named by LADDER_CONFIG, a .env file, and the
// process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := Default()

	if path := getEnv("LADDER_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path. Keys missing from the file keep
// their current value.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Catalog.BaseURL = getEnv("CATALOG_BASE_URL", c.Catalog.BaseURL)
	c.Catalog.Timeout = getEnvAsDuration("CATALOG_TIMEOUT", c.Catalog.Timeout)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)
	c.Storage.RedisAddress = getEnv("REDIS_ADDRESS", c.Storage.RedisAddress)
	c.Storage.RedisPassword = getEnv("REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.RedisDB = getEnvAsInt("REDIS_DB", c.Storage.RedisDB)
	c.Storage.DSN = getEnv("DATABASE_DSN", c.Storage.DSN)
	c.Storage.MigrationsDir = getEnv("DATABASE_MIGRATIONS_DIR", c.Storage.MigrationsDir)

	c.Browser.SearchDebounce = getEnvAsDuration("SEARCH_DEBOUNCE", c.Browser.SearchDebounce)
	c.Refresh.Interval = getEnvAsDuration("REFRESH_INTERVAL", c.Refresh.Interval)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid catalog base url: %q", c.Catalog.BaseURL)
	}

	switch c.Storage.Backend {
	case "file", "bolt":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the %s backend", c.Storage.Backend)
		}
	case "redis":
		if c.Storage.RedisAddress == "" {
			return fmt.Errorf("redis address is required")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("database DSN is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	if c.Browser.SearchDebounce < 0 {
		return fmt.Errorf("invalid search debounce: %s", c.Browser.SearchDebounce)
	}

	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("invalid refresh interval: %s", c.Refresh.Interval)
	}

	return nil
}

// SlogLevel maps the configured level name to a slog level
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
