package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	// Tax engine.
	RulesPath        string
	RoundingMode     string
	EnabledTaxTypes  []string
	DisplayInclusive bool
	VATZoneIDs       []string
	SalesTaxZoneIDs  []string

	// Rule snapshot cache.
	RulesCachePrefix string
	RulesCacheTTL    time.Duration

	// API rate limiting.
	RateLimitEnabled bool
	RateLimitPerMin  int

	// Batch worker.
	QueueConcurrency int
	BatchResultTTL   time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RulesPath:          k.String("TAX_RULES_PATH"),
		RoundingMode:       valueOrDefault(k.String("TAX_ROUNDING_MODE"), "half-up"),
		EnabledTaxTypes:    splitAndTrim(valueOrDefault(k.String("TAX_ENABLED_TYPES"), "european_union_vat,sales_tax")),
		DisplayInclusive:   parseBool(k.String("TAX_DISPLAY_INCLUSIVE")),
		VATZoneIDs:         splitAndTrim(k.String("TAX_VAT_ZONES")),
		SalesTaxZoneIDs:    splitAndTrim(k.String("TAX_SALES_TAX_ZONES")),
		RulesCachePrefix:   valueOrDefault(k.String("RULES_CACHE_PREFIX"), "taxcore:rules"),
		RulesCacheTTL:      parseDuration(k.String("RULES_CACHE_TTL"), "1h"),
		RateLimitEnabled:   parseBoolDefault(k.String("RATE_LIMIT_ENABLED"), true),
		RateLimitPerMin:    parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 300),
		QueueConcurrency:   parseInt(k.String("QUEUE_CONCURRENCY"), 4),
		BatchResultTTL:     parseDuration(k.String("BATCH_RESULT_TTL"), "24h"),
	}

	if cfg.RulesPath == "" {
		return nil, errors.New("TAX_RULES_PATH is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if len(cfg.EnabledTaxTypes) == 0 {
		return nil, errors.New("TAX_ENABLED_TYPES must name at least one tax type")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
