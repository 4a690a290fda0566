package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/bestmuadata/pkg/errors"
)

// Cache backends
const (
	CacheNone     = "none"
	CacheMemcache = "memcache"
	CacheRedis    = "redis"
)

// Config represents the application configuration
type Config struct {
	// Storage
	DatabaseURL string
	ExportDir   string

	// Site
	BaseURL     string
	HTTPTimeout time.Duration

	// Crawl behaviour
	Workers                int
	Delay                  time.Duration
	MaxCategories          int
	MaxProductsPerCategory int
	MaxPagesPerCategory    int
	SkipDetails            bool

	// Page cache
	CacheBackend string
	MemcacheAddr string
	PageCacheTTL time.Duration

	// Redis configuration
	RedisAddr           string
	RedisDB             int
	SessionReportStream string

	// Error log file for per-scope crawl failures
	ErrorLogFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		DatabaseURL:            getEnv("DATABASE_URL", "sqlite:///bestmua_data.db"),
		ExportDir:              getEnv("EXPORT_DIR", "exports"),
		BaseURL:                getEnv("BASE_URL", "https://bestmua.vn"),
		HTTPTimeout:            time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		Workers:                getEnvInt("CRAWL_WORKERS", 4),
		Delay:                  time.Duration(getEnvInt("CRAWL_DELAY_MS", 1000)) * time.Millisecond,
		MaxCategories:          getEnvInt("MAX_CATEGORIES", 0),
		MaxProductsPerCategory: getEnvInt("MAX_PRODUCTS_PER_CATEGORY", 0),
		MaxPagesPerCategory:    getEnvInt("MAX_PAGES_PER_CATEGORY", 0),
		SkipDetails:            getEnvBool("SKIP_DETAILS", false),
		CacheBackend:           strings.ToLower(getEnv("CACHE_BACKEND", CacheNone)),
		MemcacheAddr:           getEnv("MEMCACHE_ADDR", "localhost:11211"),
		PageCacheTTL:           time.Duration(getEnvInt("PAGE_CACHE_TTL_SECONDS", 600)) * time.Second,
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		SessionReportStream:    getEnv("SESSION_REPORT_STREAM", ""),
		ErrorLogFile:           getEnv("ERROR_LOG_FILE", ""),
		Environment:            getEnv("BESTMUA_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the crawler cannot run with
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.NewConfiguration("DATABASE_URL is required", nil)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewConfiguration("BASE_URL must be an absolute http(s) URL", err)
	}
	if c.Workers < 1 {
		return errors.NewConfiguration("CRAWL_WORKERS must be at least 1", nil)
	}
	if c.Delay < 0 {
		return errors.NewConfiguration("CRAWL_DELAY_MS must not be negative", nil)
	}
	if c.MaxCategories < 0 || c.MaxProductsPerCategory < 0 || c.MaxPagesPerCategory < 0 {
		return errors.NewConfiguration("crawl limits must not be negative", nil)
	}
	if c.ExportDir == "" {
		return errors.NewConfiguration("EXPORT_DIR is required", nil)
	}
	switch c.CacheBackend {
	case CacheNone, CacheMemcache, CacheRedis:
	default:
		return errors.NewConfiguration("CACHE_BACKEND must be one of none, memcache, redis", nil)
	}
	return nil
}

// IsProduction reports whether the crawler runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
