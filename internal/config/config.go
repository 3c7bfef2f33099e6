// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Store backends
// --------------------------------------------------------------------------

const (
	StorePostgres = "postgres"
	StoreBadger   = "badger"

	// DefaultCollection scopes every document this pipeline writes.
	DefaultCollection = "seguimiento_futbol"

	// DefaultUserAgent is a desktop Chrome; some sources block headless
	// user agents on repeat visits.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Document store
	StoreBackend   string
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	BadgerPath     string
	Collection     string

	// Source catalog; empty uses the embedded default.
	SourcesFile string

	// Browser
	Headless       bool
	NoSandbox      bool
	ChromePath     string
	UserAgent      string
	AcceptLanguage string
	ViewportWidth  int
	ViewportHeight int

	// Extraction timeouts
	NavigationTimeout time.Duration
	ElementTimeout    time.Duration
	SettleTimeout     time.Duration
	ConsentTimeout    time.Duration
	ActionTimeout     time.Duration
	NavigationPacing  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool
	CacheTTL     time.Duration

	LogLevel slog.Level
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	backend := strings.ToLower(envOr("STORE_BACKEND", StorePostgres))

	cfg := &Config{
		StoreBackend:   backend,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		BadgerPath:     envOr("BADGER_PATH", "data/badger"),
		Collection:     envOr("STORE_COLLECTION", DefaultCollection),

		SourcesFile: envOr("SOURCES_FILE", ""),

		Headless:       envBool("BROWSER_HEADLESS", true),
		NoSandbox:      envBool("BROWSER_NO_SANDBOX", true),
		ChromePath:     envOr("CHROME_PATH", ""),
		UserAgent:      envOr("BROWSER_USER_AGENT", DefaultUserAgent),
		AcceptLanguage: envOr("BROWSER_LANG", "es-ES"),
		ViewportWidth:  envInt("BROWSER_VIEWPORT_WIDTH", 800),
		ViewportHeight: envInt("BROWSER_VIEWPORT_HEIGHT", 731),

		NavigationTimeout: envDuration("NAVIGATION_TIMEOUT", 60*time.Second),
		ElementTimeout:    envDuration("ELEMENT_TIMEOUT", 20*time.Second),
		SettleTimeout:     envDuration("SETTLE_TIMEOUT", 15*time.Second),
		ConsentTimeout:    envDuration("CONSENT_TIMEOUT", 4*time.Second),
		ActionTimeout:     envDuration("ACTION_TIMEOUT", 10*time.Second),
		NavigationPacing:  envDuration("NAVIGATION_PACING", 2*time.Second),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:4321",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     envDuration("CACHE_TTL", 5*time.Minute),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	switch backend {
	case StorePostgres:
		url, err := databaseURL()
		if err != nil {
			return nil, err
		}
		cfg.DatabaseURL = url
	case StoreBadger:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StorePostgres, StoreBadger, backend)
	}

	return cfg, nil
}

// databaseURL reads the store credential from DATABASE_URL, or from the
// file named by DATABASE_URL_FILE.
func databaseURL() (string, error) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v, nil
	}
	path := os.Getenv("DATABASE_URL_FILE")
	if path == "" {
		return "", fmt.Errorf("DATABASE_URL or DATABASE_URL_FILE must be set")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read DATABASE_URL_FILE: %w", err)
	}
	url := strings.TrimSpace(string(b))
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL_FILE %s is empty", path)
	}
	return url, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s") or plain seconds ("90").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(os.Getenv(key))); err != nil {
		return fallback
	}
	return l
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
