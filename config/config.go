package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Search    SearchConfig
	LLM       LLMConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
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

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path. When empty, rod
	// discovers or downloads a browser itself.
	BrowserBin string

	// Proxy is an optional proxy URL for all browser traffic.
	Proxy string

	// UserAgent is sent on every navigation so the scraper looks like a
	// regular desktop browser.
	UserAgent string
}

// SearchConfig controls the deal search behavior.
type SearchConfig struct {
	// BaseURL is the deals forum origin.
	BaseURL string // default: "https://slickdeals.net"

	// ForumID selects the forum category searched (9 = Merchant/General).
	ForumID int // default: 9

	// ResultSelector matches one result container per candidate deal.
	ResultSelector string // default: ".resultRow"

	// ImageSelector matches the image-bearing block inside a result row.
	ImageSelector string // default: ".dealImg"

	// LinkSelector matches the title/link block inside a result row.
	LinkSelector string // default: ".dealWrapper"

	// LazyImageAttr is the deferred-load image attribute, preferred over src.
	LazyImageAttr string // default: "data-original"

	// MaxResults caps how many result rows are considered.
	MaxResults int // default: 3

	// WaitTimeout bounds the wait for the first result container to appear
	// after navigation.
	WaitTimeout time.Duration // default: 10s

	// SearchTimeout is the hard deadline for one whole search operation.
	SearchTimeout time.Duration // default: 30s

	// FetchMode selects the fetch strategy.
	// "browser" (default): headless Chrome.
	// "http": plain HTTP with a Chrome TLS fingerprint, falling back to the
	// browser when the page looks JS-rendered.
	FetchMode string

	// Stealth enables anti-bot-detection JS injection.
	Stealth bool // default: false

	// BlockedResourceTypes lists resource types to block during navigation.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// LLMConfig controls the Gemini-backed single-deal extraction.
type LLMConfig struct {
	// APIKey is the generativelanguage API key. When empty, /api/deal
	// responds 503.
	APIKey string

	// Model is the generateContent model name.
	Model string // default: "gemini-2.5-flash-preview-09-2025"

	// BaseURL is the API root.
	BaseURL string // default: "https://generativelanguage.googleapis.com/v1beta"

	// Timeout is the per-call deadline, covering all backoff retries.
	Timeout time.Duration // default: 60s

	// MaxRetries bounds the backoff fetcher's retries on 429 or
	// transport failure.
	MaxRetries int // default: 3
}

// RateLimitConfig controls per-IP rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per client IP.
	Burst int // default: 10
}

// CacheConfig controls the optional search result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached result lists.
	MaxEntries int // default: 256

	// MaxAge is how long a cached result list stays valid. Zero disables
	// caching entirely, which is the default: repeated queries hit the
	// source every time.
	MaxAge time.Duration // default: 0
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PLENZO_HOST", "0.0.0.0"),
			Port: envIntOr("PLENZO_PORT", 8080),
			Mode: envOr("PLENZO_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("PLENZO_HEADLESS", true),
			MaxPages:   envIntOr("PLENZO_MAX_PAGES", 4),
			NoSandbox:  envBoolOr("PLENZO_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PLENZO_BROWSER_BIN"),
			Proxy:      os.Getenv("PLENZO_PROXY"),
			UserAgent: envOr("PLENZO_USER_AGENT",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"),
		},
		Search: SearchConfig{
			BaseURL:        envOr("PLENZO_SEARCH_BASE_URL", "https://slickdeals.net"),
			ForumID:        envIntOr("PLENZO_SEARCH_FORUM_ID", 9),
			ResultSelector: envOr("PLENZO_RESULT_SELECTOR", ".resultRow"),
			ImageSelector:  envOr("PLENZO_IMAGE_SELECTOR", ".dealImg"),
			LinkSelector:   envOr("PLENZO_LINK_SELECTOR", ".dealWrapper"),
			LazyImageAttr:  envOr("PLENZO_LAZY_IMAGE_ATTR", "data-original"),
			MaxResults:     envIntOr("PLENZO_MAX_RESULTS", 3),
			WaitTimeout:    envDurationOr("PLENZO_WAIT_TIMEOUT", 10*time.Second),
			SearchTimeout:  envDurationOr("PLENZO_SEARCH_TIMEOUT", 30*time.Second),
			FetchMode:      envOr("PLENZO_FETCH_MODE", "browser"),
			Stealth:        envBoolOr("PLENZO_STEALTH", false),
			BlockedResourceTypes: envSliceOr("PLENZO_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		LLM: LLMConfig{
			APIKey:     os.Getenv("PLENZO_GEMINI_API_KEY"),
			Model:      envOr("PLENZO_GEMINI_MODEL", "gemini-2.5-flash-preview-09-2025"),
			BaseURL:    envOr("PLENZO_GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout:    envDurationOr("PLENZO_GEMINI_TIMEOUT", 60*time.Second),
			MaxRetries: envIntOr("PLENZO_GEMINI_MAX_RETRIES", 3),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PLENZO_RATE_RPS", 5.0),
			Burst:             envIntOr("PLENZO_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PLENZO_CACHE_MAX_ENTRIES", 256),
			MaxAge:     envDurationOr("PLENZO_CACHE_MAX_AGE", 0),
		},
		Log: LogConfig{
			Level:  envOr("PLENZO_LOG_LEVEL", "info"),
			Format: envOr("PLENZO_LOG_FORMAT", "json"),
		},
	}
}

// Validate checks invariants that would otherwise only fail at request time.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("max results must be at least 1, got %d", c.Search.MaxResults)
	}
	if c.Search.FetchMode != "browser" && c.Search.FetchMode != "http" {
		return fmt.Errorf("invalid fetch mode %q (want \"browser\" or \"http\")", c.Search.FetchMode)
	}
	for name, sel := range map[string]string{
		"result selector": c.Search.ResultSelector,
		"image selector":  c.Search.ImageSelector,
		"link selector":   c.Search.LinkSelector,
	} {
		if _, err := cascadia.Parse(sel); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, sel, err)
		}
	}
	return nil
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
