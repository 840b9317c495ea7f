// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, cache tier TTLs and thresholds, external provider credentials,
// retention policy, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-shop-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// RedisConfig defines connection settings for the shared cache tier.
type RedisConfig struct {
	Addr     string // REDIS_ADDR, empty disables the tier
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
}

// ShoppingConfig defines settings for the external shopping-search provider.
type ShoppingConfig struct {
	APIKey     string        // SHOPPING_API_KEY, empty switches the pipeline to sample mode
	BaseURL    string        // SHOPPING_BASE_URL
	Engine     string        // SHOPPING_ENGINE (e.g. "google_shopping")
	Country    string        // SHOPPING_COUNTRY (e.g. "tr")
	Language   string        // SHOPPING_LANGUAGE (e.g. "tr")
	ResultNum  int           // SHOPPING_RESULT_NUM per call
	MaxRetries int           // SHOPPING_MAX_RETRIES on transient failure
	RetryDelay time.Duration // SHOPPING_RETRY_DELAY, linear backoff unit
	Timeout    time.Duration // SHOPPING_TIMEOUT per HTTP call
}

// TranslateConfig defines settings for the best-effort text-generation
// provider used for query rewriting and title translation. Absence of an API
// key is a valid runtime mode: every call passes its input through unchanged.
type TranslateConfig struct {
	APIKey    string        // TRANSLATE_API_KEY, empty disables translation
	BaseURL   string        // TRANSLATE_BASE_URL
	Model     string        // TRANSLATE_MODEL
	MaxTokens int           // TRANSLATE_MAX_TOKENS
	Timeout   time.Duration // TRANSLATE_TIMEOUT per HTTP call
}

// FilterConfig defines result-filtering knobs applied by the enrichment
// pipeline on top of the built-in exclusion keyword lists.
type FilterConfig struct {
	AllowedDomains  []string // FILTER_ALLOWED_DOMAINS (CSV), empty allows all
	AccessoriesOnly bool     // FILTER_ACCESSORIES_ONLY
}

// RefreshConfig guards the scheduled category refresh job. The job forces
// enrichment for every known category, so it is disabled by default to keep
// provider spend under control.
type RefreshConfig struct {
	Enabled       bool   // REFRESH_ENABLED
	Secret        string // REFRESH_SECRET, required when enabled
	MaxCategories int    // REFRESH_MAX_CATEGORIES per run
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// Storage
	DBPath string // SQLite path
	Redis  RedisConfig

	// Cache tiers
	MemoryTTL  time.Duration // TTL of the process-local tier
	RedisTTL   time.Duration // TTL of the shared tier
	ProductTTL time.Duration // per-row expiry of the durable tier

	// Durable-tier hit thresholds: a lookup below the threshold is a miss.
	SearchMinResults   int // MIN_RESULTS_SEARCH
	DiscountMinResults int // MIN_RESULTS_DISCOUNT

	// Retention
	CategoryCap int // max rows kept per category (oldest evicted)

	// External providers
	Shopping  ShoppingConfig
	Translate TranslateConfig

	// Result filtering
	Filter FilterConfig

	// Refresh job
	Refresh RefreshConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath: getenv("DB_PATH", "shop.db"),
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},

		// Cache tiers
		MemoryTTL:  getdur("MEMORY_TTL", 5*time.Minute),
		RedisTTL:   getdur("REDIS_TTL", 30*time.Minute),
		ProductTTL: getdur("PRODUCT_TTL", 24*time.Hour),

		SearchMinResults:   getint("MIN_RESULTS_SEARCH", 16),
		DiscountMinResults: getint("MIN_RESULTS_DISCOUNT", 40),

		CategoryCap: getint("CATEGORY_CAP", 60),

		Shopping: ShoppingConfig{
			APIKey:     getenv("SHOPPING_API_KEY", ""),
			BaseURL:    getenv("SHOPPING_BASE_URL", "https://serpapi.com/search.json"),
			Engine:     getenv("SHOPPING_ENGINE", "google_shopping"),
			Country:    getenv("SHOPPING_COUNTRY", "tr"),
			Language:   getenv("SHOPPING_LANGUAGE", "tr"),
			ResultNum:  getint("SHOPPING_RESULT_NUM", 60),
			MaxRetries: getint("SHOPPING_MAX_RETRIES", 2),
			RetryDelay: getdur("SHOPPING_RETRY_DELAY", 500*time.Millisecond),
			Timeout:    getdur("SHOPPING_TIMEOUT", 15*time.Second),
		},
		Translate: TranslateConfig{
			APIKey:    getenv("TRANSLATE_API_KEY", ""),
			BaseURL:   getenv("TRANSLATE_BASE_URL", "https://api.openai.com/v1/chat/completions"),
			Model:     getenv("TRANSLATE_MODEL", "gpt-4o-mini"),
			MaxTokens: getint("TRANSLATE_MAX_TOKENS", 256),
			Timeout:   getdur("TRANSLATE_TIMEOUT", 10*time.Second),
		},

		Filter: FilterConfig{
			AllowedDomains:  splitCSV(getenv("FILTER_ALLOWED_DOMAINS", "")),
			AccessoriesOnly: getbool("FILTER_ACCESSORIES_ONLY", false),
		},

		Refresh: RefreshConfig{
			Enabled:       getbool("REFRESH_ENABLED", false),
			Secret:        getenv("REFRESH_SECRET", ""),
			MaxCategories: getint("REFRESH_MAX_CATEGORIES", 5),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-shop-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.MemoryTTL <= 0 || cfg.RedisTTL <= 0 || cfg.ProductTTL <= 0 {
		return cfg, errors.New("cache TTLs must be positive durations")
	}
	if cfg.SearchMinResults < 1 || cfg.DiscountMinResults < 1 {
		return cfg, errors.New("minimum result thresholds must be >= 1")
	}
	if cfg.CategoryCap < 1 {
		return cfg, errors.New("CATEGORY_CAP must be >= 1")
	}
	if cfg.Shopping.MaxRetries < 0 {
		return cfg, errors.New("SHOPPING_MAX_RETRIES must be >= 0")
	}
	if cfg.Shopping.ResultNum < 1 {
		return cfg, errors.New("SHOPPING_RESULT_NUM must be >= 1")
	}
	if cfg.Refresh.Enabled && strings.TrimSpace(cfg.Refresh.Secret) == "" {
		return cfg, errors.New("REFRESH_SECRET is required when REFRESH_ENABLED is set")
	}
	if cfg.Refresh.MaxCategories < 1 {
		return cfg, errors.New("REFRESH_MAX_CATEGORIES must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
