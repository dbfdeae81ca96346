package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultRateLimitMax is the per-key request ceiling used when the
	// configured value is missing or invalid.
	DefaultRateLimitMax = 100
	// DefaultRateLimitWindow is the window duration used when the
	// configured value is missing or invalid.
	DefaultRateLimitWindow = time.Minute
)

// Config holds application configuration
type Config struct {
	Env                  string
	ServerPort           string
	DatabaseURL          string
	RedisURL             string
	AllowedOrigins       []string
	CORSAllowCredentials bool
	RateLimitMax         int
	RateLimitWindow      time.Duration
	RateLimitBackend     string
	EnableHSTS           bool
	ServerDebugMode      bool
	OTELEnabled          bool
	OTELEndpoint         string
}

// fileConfig mirrors Config for the optional YAML overlay. Values set in
// the file act as defaults; environment variables still win.
type fileConfig struct {
	Env                  string   `yaml:"env"`
	ServerPort           string   `yaml:"server_port"`
	DatabaseURL          string   `yaml:"database_url"`
	RedisURL             string   `yaml:"redis_url"`
	AllowedOrigins       []string `yaml:"allowed_origins"`
	CORSAllowCredentials *bool    `yaml:"cors_allow_credentials"`
	RateLimitMax         int      `yaml:"rate_limit_max"`
	RateLimitWindowMS    int      `yaml:"rate_limit_window_ms"`
	RateLimitBackend     string   `yaml:"rate_limit_backend"`
}

// Load loads configuration from environment variables, layered over an
// optional YAML file named by AIDBRIDGE_CONFIG.
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("AIDBRIDGE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", fc.Env, "development"),
		ServerPort:       getEnv("SERVER_PORT", fc.ServerPort, "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", fc.DatabaseURL, ""),
		RedisURL:         getEnv("REDIS_URL", fc.RedisURL, "redis://localhost:6379/0"),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", fc.RateLimitBackend, "memory"),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", ""),
	}

	cfg.AllowedOrigins = fc.AllowedOrigins
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = SplitOrigins(raw)
	}

	if fc.CORSAllowCredentials != nil {
		cfg.CORSAllowCredentials = *fc.CORSAllowCredentials
	}
	if v := os.Getenv("CORS_ALLOW_CREDENTIALS"); v != "" {
		cfg.CORSAllowCredentials = v == "true" || v == "1" || v == "yes"
	}

	// Limiter settings must never fail the process: bad values fall back
	// to fixed defaults instead of returning an error.
	cfg.RateLimitMax = getEnvInt("RATE_LIMIT_MAX", fc.RateLimitMax)
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = DefaultRateLimitMax
	}
	windowMS := getEnvInt("RATE_LIMIT_WINDOW_MS", fc.RateLimitWindowMS)
	if windowMS <= 0 {
		cfg.RateLimitWindow = DefaultRateLimitWindow
	} else {
		cfg.RateLimitWindow = time.Duration(windowMS) * time.Millisecond
	}

	switch cfg.RateLimitBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("RATE_LIMIT_BACKEND must be 'memory' or 'redis', got %q", cfg.RateLimitBackend)
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// IsDevOrTest reports whether the app runs in a development-like
// environment. Gates default localhost origins and stack-trace exposure.
func (c *Config) IsDevOrTest() bool { return c.Env == "development" || c.Env == "test" }

// SplitOrigins splits a comma-separated origin list, trimming whitespace
// and dropping empties and duplicates.
func SplitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	seen := make(map[string]bool)
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
