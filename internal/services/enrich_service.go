// Package services – EnrichService
//
// This file implements the external enrichment pipeline: the expensive path
// taken on a full cache miss or a forced refresh. It classifies the query,
// rewrites it for the Turkish retail market (best effort), calls the
// shopping-search provider with bounded retries, filters and enriches the
// returned items concurrently, normalizes prices, and persists the survivors
// into the durable tier.
//
// Failure tolerance is per step: translation failures pass input through,
// a failure processing one item drops that item only, and a persistence
// failure degrades future cache hits but never the current response. Only a
// hard provider failure after retries surfaces — and even then as an
// empty-result payload with a localized message, never as a raw error.
package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gstyle/go-shop-backend/internal/domain"
	"github.com/gstyle/go-shop-backend/internal/providers"
	"github.com/gstyle/go-shop-backend/internal/repo"
	"github.com/gstyle/go-shop-backend/internal/search"
)

// Searcher is the shopping-search provider contract consumed by the
// enrichment pipeline.
type Searcher interface {
	// Search fetches raw shopping results for a (possibly rewritten) query.
	Search(ctx context.Context, query string) ([]providers.Item, error)
}

// Translator is the best-effort text-generation contract. Both methods
// return their input unchanged when enrichment is unavailable.
type Translator interface {
	RewriteQuery(ctx context.Context, query string) string
	TranslateTitle(ctx context.Context, title string) string
}

// EnrichService orchestrates the fetch-filter-translate-persist sequence.
type EnrichService struct {
	DB         *gorm.DB
	Shopping   Searcher
	Translator Translator

	// Namespace separates this pipeline's durable rows from other
	// endpoints sharing the table (e.g. "search" vs "discounts"). It must
	// match the namespace of the orchestrator probing the durable tier.
	Namespace string

	// Filter holds the exclusion options applied to every returned item.
	Filter search.FilterOptions

	// DiscountsOnly keeps only items with a known higher prior price.
	DiscountsOnly bool

	// ProductTTL is the per-row expiry of persisted products.
	ProductTTL time.Duration
	// CategoryCap bounds rows kept per category (oldest evicted).
	CategoryCap int
}

// dbKey derives the durable-tier lookup key for a normalized query. The same
// derivation is used by the orchestrator so all tiers probe one key.
func dbKey(namespace, key string) string {
	return namespace + ":" + key
}

// Enrich resolves a normalized query against the external providers and
// persists the outcome. It never returns an error: provider exhaustion is
// reported in the payload as CodeProviderError so the caller can distinguish
// it from a legitimate empty result (CodeEmpty) without a raw error leaking
// to the client.
func (s *EnrichService) Enrich(ctx context.Context, key, originalQuery string) *domain.SearchResult {
	tr := otel.Tracer("services/EnrichService")
	ctx, span := tr.Start(ctx, "Enrich",
		trace.WithAttributes(attribute.String("query.key", key)),
	)
	defer span.End()

	category := search.Classify(key)

	// Best-effort rewrite; pass-through on failure or missing config.
	rewritten := s.Translator.RewriteQuery(ctx, originalQuery)

	items, err := s.Shopping.Search(ctx, rewritten)
	if err != nil {
		if errors.Is(err, providers.ErrNotConfigured) {
			log.Warn().Str("key", key).Msg("shopping provider not configured, serving sample results")
			return s.sampleResult(key, category)
		}
		log.Error().Err(err).Str("key", key).Msg("shopping search exhausted retries")
		return domain.Empty(domain.CodeProviderError, MsgSearchUnavailable)
	}

	products := s.processItems(ctx, key, category, originalQuery, items)
	if len(products) == 0 {
		return domain.Empty(domain.CodeEmpty, MsgNothingFound)
	}

	s.persist(ctx, category, products)

	return &domain.SearchResult{
		Products: products,
		Total:    len(products),
		Code:     domain.CodeOK,
		Source:   domain.SourceProvider,
	}
}

// processItems filters and enriches a raw batch concurrently. Items are
// independent: a failure (filtered out, unparseable price, no link) yields a
// nil slot that is dropped afterwards, never aborting the batch. Completion
// order is irrelevant; slots keep provider order.
func (s *EnrichService) processItems(ctx context.Context, key, category, originalQuery string, items []providers.Item) []domain.Product {
	slots := make([]*domain.Product, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		g.Go(func() error {
			slots[i] = s.processItem(gctx, key, category, originalQuery, items[i])
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	// Write timestamps carry a per-item offset so the batch has a total
	// order and the count-based eviction never breaks ties arbitrarily.
	now := time.Now().UTC()
	out := make([]domain.Product, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, p := range slots {
		if p == nil {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		p.Query = dbKey(s.Namespace, key)
		p.Category = category
		p.CreatedAt = now.Add(time.Duration(len(out)) * time.Microsecond)
		p.ExpiresAt = p.CreatedAt.Add(s.ProductTTL)
		out = append(out, *p)
	}
	return out
}

// processItem turns one raw provider item into a Product, or nil when the
// item is filtered out or unusable.
func (s *EnrichService) processItem(ctx context.Context, key, category, originalQuery string, item providers.Item) *domain.Product {
	if !search.Acceptable(item.Title, s.Filter) {
		return nil
	}

	link := search.ExtractLink([]string{item.ProductLink, item.Link, item.SerpLink}, originalQuery)
	if link == "" || !search.DomainAllowed(link, s.Filter) {
		return nil
	}

	// Structured numeric price preferred; localized string parsing otherwise.
	price := item.ExtractedPrice
	if price <= 0 {
		var err error
		price, err = search.ParsePrice(item.Price)
		if err != nil {
			return nil
		}
	}

	var original *float64
	if item.ExtractedOldPrice > price {
		v := item.ExtractedOldPrice
		original = &v
	} else if v, err := search.ParsePrice(item.OldPrice); err == nil && v > price {
		original = &v
	}

	if s.DiscountsOnly && original == nil {
		return nil
	}

	id := item.ProductID
	if id == "" {
		sum := sha256.Sum256([]byte(link))
		id = fmt.Sprintf("%x", sum[:12])
	}

	return &domain.Product{
		ID:            id,
		Title:         item.Title,
		TitleFA:       s.Translator.TranslateTitle(ctx, item.Title),
		Price:         price,
		OriginalPrice: original,
		Link:          link,
		Thumbnail:     item.Thumbnail,
		Source:        item.Source,
		Rating:        item.Rating,
		Reviews:       item.Reviews,
	}
}

// persist writes the batch and applies both retention triggers. Failures are
// logged and ignored: the response already has its data in hand, so a
// persistence failure costs future cache hits, not current correctness.
func (s *EnrichService) persist(ctx context.Context, category string, products []domain.Product) {
	if s.DB == nil {
		return
	}
	saved := repo.UpsertProducts(ctx, s.DB, products)
	if saved < len(products) {
		log.Warn().Int("saved", saved).Int("batch", len(products)).Msg("partial product persistence")
	}
	if err := repo.PruneCategory(ctx, s.DB, category, s.CategoryCap); err != nil {
		log.Warn().Err(err).Str("category", category).Msg("category pruning failed")
	}
	if _, err := repo.DeleteExpired(ctx, s.DB, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Msg("expiry cleanup failed")
	}
}

// sampleResult is the degraded response served when the shopping provider is
// not configured. Samples are deterministic, clearly marked, and never
// persisted to the durable tier.
func (s *EnrichService) sampleResult(key, category string) *domain.SearchResult {
	now := time.Now().UTC()
	mk := func(n int, title string, price float64) domain.Product {
		sum := sha256.Sum256([]byte(fmt.Sprintf("sample:%s:%d", key, n)))
		return domain.Product{
			ID:        fmt.Sprintf("sample-%x", sum[:6]),
			Query:     dbKey(s.Namespace, key),
			Category:  category,
			Title:     title,
			TitleFA:   title,
			Price:     price,
			Link:      "https://www.trendyol.com/",
			Source:    "sample",
			CreatedAt: now,
			ExpiresAt: now.Add(s.ProductTTL),
		}
	}
	return &domain.SearchResult{
		Products: []domain.Product{
			mk(1, "Örnek Ürün 1", 199.90),
			mk(2, "Örnek Ürün 2", 349.50),
		},
		Total:   2,
		Message: MsgSampleMode,
		Code:    domain.CodeOK,
		Source:  domain.SourceProvider,
	}
}
