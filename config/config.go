package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Store     StoreConfig
	Cache     CacheConfig
	LLM       LLMConfig
	Webhook   WebhookConfig
	Session   SessionConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig

	// Credentials holds provider API keys and database credentials read
	// from the environment, keyed by their canonical variable names.
	Credentials map[string]string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// DefaultProxy is the proxy URL used for every fetch.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls how page content is fetched.
type ScraperConfig struct {
	// PageLoadTimeout bounds navigation plus DOM settling for one fetch.
	PageLoadTimeout time.Duration // default: 30s

	// ScriptTimeout bounds each script evaluation (scrolling, title).
	ScriptTimeout time.Duration // default: 10s

	// Scrolls is the number of viewport scrolls performed after load
	// so lazy-loaded listings are rendered.
	Scrolls int // default: 2

	// FetchMode is "browser" (always render) or "auto" (plain HTTP first,
	// browser when the page needs JS).
	FetchMode string // default: "browser"

	// HTTPTimeout is the deadline for the plain HTTP attempt in auto mode.
	HTTPTimeout time.Duration // default: 5s

	// ExtractMode is "raw" (whole page to markdown) or "readability"
	// (main content only).
	ExtractMode string // default: "raw"

	// Stealth injects anti-detection JS before navigation.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds drops requests to known ad/tracking domains.
	BlockAds bool // default: true
}

// StoreConfig tunes the Postgres pools holding scraped_data. The
// database itself is named by the DATABASE_URL and DATABASE_TOKEN
// credentials.
type StoreConfig struct {
	// MaxConns caps the pool size per database.
	MaxConns int32 // default: 5
}

// CacheConfig controls the raw-content cache in front of the store.
type CacheConfig struct {
	// Enabled toggles the cache.
	Enabled bool // default: true

	// MaxEntries is the maximum number of in-memory entries.
	MaxEntries int // default: 1000

	// TTL is how long a cached page stays valid.
	TTL time.Duration // default: 1h

	// RedisAddr switches the cache to Redis when set.
	RedisAddr string

	// RedisPassword and RedisDB select the Redis database.
	RedisPassword string
	RedisDB       int
}

// LLMConfig controls the extraction providers.
type LLMConfig struct {
	// DefaultModel is used when a request does not name one.
	DefaultModel string // default: "gpt-4o-mini"

	// Timeout is the HTTP timeout for a single completion request.
	Timeout time.Duration // default: 120s

	// BaseURLs overrides provider endpoints, keyed by provider name
	// ("openai", "gemini", "groq", "anthropic").
	BaseURLs map[string]string
}

// WebhookConfig controls run-completion notifications.
type WebhookConfig struct {
	// Secret signs webhook payloads with HMAC-SHA256 when set.
	Secret string
}

// SessionConfig controls the in-memory session registry.
type SessionConfig struct {
	// IdleTTL evicts sessions untouched for this long.
	IdleTTL time.Duration // default: 24h
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// CredentialNames lists the environment variables that may carry
// provider keys or store credentials. Session input overrides them.
var CredentialNames = []string{
	"OPENAI_API_KEY",
	"GEMINI_API_KEY",
	"GROQ_API_KEY",
	"ANTHROPIC_API_KEY",
	"DATABASE_URL",
	"DATABASE_TOKEN",
}

// Load reads configuration from environment variables with sane defaults.
// An optional .env file is merged in first without overriding real
// environment variables.
func Load() *Config {
	loadDotEnv(envOr("HARVEST_ENV_FILE", ".env"))

	credentials := make(map[string]string, len(CredentialNames))
	for _, name := range CredentialNames {
		if v := os.Getenv(name); v != "" {
			credentials[name] = v
		}
	}

	baseURLs := make(map[string]string)
	for _, provider := range []string{"openai", "gemini", "groq", "anthropic"} {
		if v := os.Getenv("HARVEST_" + strings.ToUpper(provider) + "_BASE_URL"); v != "" {
			baseURLs[provider] = v
		}
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("HARVEST_HEADLESS", true),
			DefaultProxy: os.Getenv("HARVEST_PROXY"),
			NoSandbox:    envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("HARVEST_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			PageLoadTimeout: envDurationOr("HARVEST_PAGE_LOAD_TIMEOUT", 30*time.Second),
			ScriptTimeout:   envDurationOr("HARVEST_SCRIPT_TIMEOUT", 10*time.Second),
			Scrolls:         envIntOr("HARVEST_SCROLLS", 2),
			FetchMode:       envOr("HARVEST_FETCH_MODE", "browser"),
			HTTPTimeout:     envDurationOr("HARVEST_HTTP_TIMEOUT", 5*time.Second),
			ExtractMode:     envOr("HARVEST_EXTRACT_MODE", "raw"),
			Stealth:         envBoolOr("HARVEST_STEALTH", true),
			BlockedResourceTypes: envSliceOr("HARVEST_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			BlockAds: envBoolOr("HARVEST_BLOCK_ADS", true),
		},
		Store: StoreConfig{
			MaxConns: int32(envIntOr("HARVEST_DB_MAX_CONNS", 5)),
		},
		Cache: CacheConfig{
			Enabled:       envBoolOr("HARVEST_CACHE_ENABLED", true),
			MaxEntries:    envIntOr("HARVEST_CACHE_MAX_ENTRIES", 1000),
			TTL:           envDurationOr("HARVEST_CACHE_TTL", time.Hour),
			RedisAddr:     os.Getenv("HARVEST_REDIS_ADDR"),
			RedisPassword: os.Getenv("HARVEST_REDIS_PASSWORD"),
			RedisDB:       envIntOr("HARVEST_REDIS_DB", 0),
		},
		LLM: LLMConfig{
			DefaultModel: envOr("HARVEST_DEFAULT_MODEL", "gpt-4o-mini"),
			Timeout:      envDurationOr("HARVEST_LLM_TIMEOUT", 120*time.Second),
			BaseURLs:     baseURLs,
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("HARVEST_WEBHOOK_SECRET"),
		},
		Session: SessionConfig{
			IdleTTL: envDurationOr("HARVEST_SESSION_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", true),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
		Credentials: credentials,
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
