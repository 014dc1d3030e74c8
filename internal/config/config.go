package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the SearchAi API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	History   HistoryConfig   `yaml:"history"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Storage drivers.
const (
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverMemory = "memory"
)

// Rate limiter backends.
const (
	LimiterMemory = "memory"
	LimiterStore  = "store"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds JWT verification settings.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	CookieName string `yaml:"cookie_name"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // mongo, redis, valkey, memory (default: mongo)
	URI              string   `yaml:"uri"`    // mongo
	Name             string   `yaml:"name"`   // mongo database name
	MaxPoolSize      uint64   `yaml:"max_pool_size"`
	Addrs            []string `yaml:"addrs"` // redis/valkey
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins      []string `yaml:"allowed_origins"`
	AllowLocalhost      bool     `yaml:"allow_localhost"`
	AllowVercelPreviews bool     `yaml:"allow_vercel_previews"`
	MaxAgeSec           int      `yaml:"max_age_sec"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Backend    string `yaml:"backend"` // memory (token bucket) or store (fixed window in the database)
	Requests   int    `yaml:"requests"`
	WindowSec  int    `yaml:"window_sec"`
	TrustProxy bool   `yaml:"trust_proxy"` // resolve client IP from CF-Connecting-IP / X-Forwarded-For / X-Real-IP
}

// HistoryConfig holds retention settings.
type HistoryConfig struct {
	Keep int `yaml:"keep"`
}

// GeneratorConfig holds answer generator settings.
type GeneratorConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMongo
	}
	if c.Database.Name == "" {
		c.Database.Name = "searchai"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "token"
	}
	if c.CORS.MaxAgeSec <= 0 {
		c.CORS.MaxAgeSec = 86400
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = LimiterMemory
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 900
	}
	if c.History.Keep <= 0 {
		c.History.Keep = 100
	}
	if c.Generator.Provider == "" {
		c.Generator.Provider = "openai"
	}
	if c.Generator.Model == "" {
		c.Generator.Model = "gpt-4o-mini"
	}
	if c.Generator.MaxTokens <= 0 {
		c.Generator.MaxTokens = 1500
	}
	if c.Generator.TimeoutSec <= 0 {
		c.Generator.TimeoutSec = 45
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return fmt.Errorf("database.uri is required for driver %q", c.Database.Driver)
		}
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of mongo, redis, valkey, memory, got %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.RateLimit.Backend {
	case LimiterMemory:
	case LimiterStore:
		if c.Database.Driver == DriverMongo {
			return fmt.Errorf("rate_limit.backend %q requires a redis, valkey or memory database driver", LimiterStore)
		}
	default:
		return fmt.Errorf("rate_limit.backend must be \"memory\" or \"store\", got %q", c.RateLimit.Backend)
	}
	if c.Generator.Provider != "openai" {
		return fmt.Errorf("generator.provider must be \"openai\", got %q", c.Generator.Provider)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
