// Package services – ResolveService
//
// This file implements the cache orchestrator: the per-request state machine
// that resolves a raw query through the tier chain
//
//	Tier-1 (process memory) → Tier-2 (Redis) → Tier-3 (durable store) → Enrich
//
// On a hit, every tier below the hit point is backfilled with the same
// payload before returning, so an identical follow-up request escalates no
// further than the tier just populated. A force refresh bypasses every probe
// and overwrites all tiers with the fresh result.
//
// Concurrent identical misses are coalesced through singleflight: only one
// enrichment runs per normalized key at a time, and waiters share its result.
// The flight runs on a context detached from its callers so that one client
// disconnecting cannot fail the result for everyone coalesced behind it.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gstyle/go-shop-backend/internal/cache"
	"github.com/gstyle/go-shop-backend/internal/domain"
	"github.com/gstyle/go-shop-backend/internal/repo"
	"github.com/gstyle/go-shop-backend/internal/search"
)

// Enricher is the enrichment pipeline contract consumed by the orchestrator.
type Enricher interface {
	// Enrich resolves key against the external providers. It reports
	// failure in the payload code, never as an error.
	Enrich(ctx context.Context, key, originalQuery string) *domain.SearchResult
}

// TierMetrics records per-tier hit/miss outcomes. Implemented with
// Prometheus counters in the middleware package; nil-safe no-op when unset.
type TierMetrics interface {
	Hit(tier string)
	Miss(tier string)
}

// ResolveService ties the cache tiers and the enrichment pipeline together.
// The memory cache is injected, not ambient, so every test gets a fresh one.
type ResolveService struct {
	Memory *cache.MemoryCache
	Redis  *cache.RedisCache // nil disables the shared tier
	DB     *gorm.DB          // nil disables the durable tier

	Enricher Enricher

	// Namespace must match the enricher's: it scopes durable-tier keys so
	// the search and discount pipelines never serve each other's rows.
	Namespace string

	// MinResults is the durable-tier hit threshold: fewer fresh rows than
	// this is a miss, and enrichment re-fetches a full page.
	MinResults int

	Metrics TierMetrics

	group singleflight.Group
}

// Resolve runs the orchestration state machine for one request.
func (s *ResolveService) Resolve(ctx context.Context, rawQuery string, force bool) (*domain.SearchResult, error) {
	if strings.TrimSpace(rawQuery) == "" {
		return nil, ErrEmptyQuery
	}
	key := search.Normalize(rawQuery)

	tr := otel.Tracer("services/ResolveService")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(
			attribute.String("query.key", key),
			attribute.Bool("force", force),
		),
	)
	defer span.End()

	if force {
		return s.enrich(ctx, key, rawQuery), nil
	}

	// Tier-1: process memory.
	if payload, ok := s.Memory.Get(key); ok {
		s.hit(domain.SourceMemory)
		return served(payload, domain.SourceMemory), nil
	}
	s.miss(domain.SourceMemory)

	// Tier-2: shared cache.
	if s.Redis != nil {
		if payload, ok := s.Redis.Get(ctx, key); ok {
			s.hit(domain.SourceRedis)
			s.Memory.Set(key, payload)
			return served(payload, domain.SourceRedis), nil
		}
		s.miss(domain.SourceRedis)
	}

	// Tier-3: durable store, with the min-count freshness predicate.
	if s.DB != nil {
		products, err := repo.FindCached(ctx, s.DB, dbKey(s.Namespace, key), s.MinResults, time.Now().UTC())
		if err != nil {
			// Fail open: a durable-tier error is a miss, not a request failure.
			log.Warn().Err(err).Str("key", key).Msg("durable tier probe failed, treating as miss")
		}
		if len(products) > 0 {
			s.hit(domain.SourceDB)
			payload := &domain.SearchResult{
				Products: products,
				Total:    len(products),
				Code:     domain.CodeOK,
				Source:   domain.SourceDB,
			}
			s.backfill(ctx, key, payload)
			return served(payload, domain.SourceDB), nil
		}
		s.miss(domain.SourceDB)
	}

	return s.enrich(ctx, key, rawQuery), nil
}

// enrichTimeout bounds one enrichment flight. The flight is detached from
// the callers' contexts, so it needs its own deadline.
const enrichTimeout = 30 * time.Second

// enrich invokes the pipeline through singleflight so concurrent identical
// misses share one provider call, then backfills every tier on success.
// A provider failure is returned as-is and backfills nothing, so the next
// request retries the full chain.
//
// The flight runs on a detached context: the winning caller may be canceled
// mid-enrichment, and its cancellation must not poison the shared result.
// A caller whose own context dies while waiting gives up with a provider
// failure; the flight keeps running and backfills for everyone else.
func (s *ResolveService) enrich(ctx context.Context, key, rawQuery string) *domain.SearchResult {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enrichTimeout)
		defer cancel()
		payload := s.Enricher.Enrich(flightCtx, key, rawQuery)
		if payload.Code != domain.CodeProviderError {
			s.backfill(flightCtx, key, payload)
		}
		return payload, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			log.Debug().Str("key", key).Msg("enrichment shared with concurrent request")
		}
		return served(res.Val.(*domain.SearchResult), domain.SourceProvider)
	case <-ctx.Done():
		log.Debug().Str("key", key).Err(ctx.Err()).Msg("caller gone before enrichment finished")
		return domain.Empty(domain.CodeProviderError, MsgSearchUnavailable)
	}
}

// backfill writes the payload into the volatile and shared tiers. The
// durable tier is populated by the enrichment pipeline itself; cache writes
// here are fire-and-forget by construction.
func (s *ResolveService) backfill(ctx context.Context, key string, payload *domain.SearchResult) {
	s.Memory.Set(key, payload)
	if s.Redis != nil {
		s.Redis.Set(ctx, key, payload)
	}
}

// served shapes a stored payload for the response without mutating the
// cached copy: cache entries are immutable once written.
func served(payload *domain.SearchResult, source string) *domain.SearchResult {
	out := *payload
	out.Source = source
	out.Cached = source != domain.SourceProvider
	return &out
}

func (s *ResolveService) hit(tier string) {
	if s.Metrics != nil {
		s.Metrics.Hit(tier)
	}
}

func (s *ResolveService) miss(tier string) {
	if s.Metrics != nil {
		s.Metrics.Miss(tier)
	}
}
