// Package httpapi wires the HTTP transport (Gin) to the resolve pipelines,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/gstyle/go-shop-backend/internal/cache"
	"github.com/gstyle/go-shop-backend/internal/config"
	"github.com/gstyle/go-shop-backend/internal/http/handlers"
	"github.com/gstyle/go-shop-backend/internal/http/middleware"
	"github.com/gstyle/go-shop-backend/internal/providers"
	"github.com/gstyle/go-shop-backend/internal/search"
	"github.com/gstyle/go-shop-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and builds the two resolve pipelines (search and discounts) plus the
// guarded refresh job on top of the injected storage handles. redisCli may be
// nil; the shared tier is then skipped and resolution goes memory → durable.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression (product payloads are large and repetitive)
//  7. Metrics
//  8. Rate limiter (per IP, protects provider spend)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, redisCli redis.UniversalClient, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB: the API accepts no large payloads)
	r.Use(limitBody(64 << 10))

	// 6) Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: pipelines ← providers/cache/db
	shopping := providers.NewShoppingClient(cfg.Shopping)
	translate := providers.NewTranslateClient(cfg.Translate)
	metrics := middleware.CacheTierMetrics{}

	searchSvc := buildPipeline(pipelineParams{
		db:        db,
		redisCli:  redisCli,
		cfg:       cfg,
		shopping:  shopping,
		translate: translate,
		metrics:   metrics,

		namespace:  "search",
		minResults: cfg.SearchMinResults,
		filter:     filterOptions(cfg),
	})
	discountSvc := buildPipeline(pipelineParams{
		db:        db,
		redisCli:  redisCli,
		cfg:       cfg,
		shopping:  shopping,
		translate: translate,
		metrics:   metrics,

		namespace:     "discounts",
		minResults:    cfg.DiscountMinResults,
		filter:        filterOptions(cfg),
		discountsOnly: true,
	})

	h := handlers.New(searchSvc, discountSvc)
	refresh := &handlers.RefreshHandler{
		Enabled: cfg.Refresh.Enabled,
		Secret:  cfg.Refresh.Secret,
		Job: &services.RefreshService{
			DB:            db,
			Resolver:      searchSvc,
			MaxCategories: cfg.Refresh.MaxCategories,
		},
	}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/search", h.Search)
		api.GET("/discounts", h.Discounts)
	}

	// Internal surface, guarded by the shared secret inside the handler.
	r.POST("/internal/refresh", refresh.Refresh)
}

// pipelineParams bundles the inputs of buildPipeline; the two endpoint
// pipelines differ only in the fields after the blank line.
type pipelineParams struct {
	db        *gorm.DB
	redisCli  redis.UniversalClient
	cfg       config.Config
	shopping  services.Searcher
	translate services.Translator
	metrics   services.TierMetrics

	namespace     string
	minResults    int
	filter        search.FilterOptions
	discountsOnly bool
}

// buildPipeline assembles one complete tier chain: a fresh memory tier, a
// namespaced view of the shared Redis tier, the durable store, and the
// enrichment pipeline behind them.
func buildPipeline(p pipelineParams) *services.ResolveService {
	var redisTier *cache.RedisCache
	if p.redisCli != nil {
		redisTier = cache.NewRedisCache(p.redisCli, p.namespace, p.cfg.RedisTTL)
	}
	return &services.ResolveService{
		Memory: cache.NewMemoryCache(p.cfg.MemoryTTL),
		Redis:  redisTier,
		DB:     p.db,
		Enricher: &services.EnrichService{
			DB:            p.db,
			Shopping:      p.shopping,
			Translator:    p.translate,
			Namespace:     p.namespace,
			Filter:        p.filter,
			DiscountsOnly: p.discountsOnly,
			ProductTTL:    p.cfg.ProductTTL,
			CategoryCap:   p.cfg.CategoryCap,
		},
		Namespace:  p.namespace,
		MinResults: p.minResults,
		Metrics:    p.metrics,
	}
}

// filterOptions maps the configured filtering knobs onto the enrichment
// pipeline's option struct.
func filterOptions(cfg config.Config) search.FilterOptions {
	return search.FilterOptions{
		AllowedDomains:  cfg.Filter.AllowedDomains,
		AccessoriesOnly: cfg.Filter.AccessoriesOnly,
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
