// Package services – RefreshService
//
// This file implements the guarded category refresh job. An external
// cron-style trigger hits the refresh endpoint; the job enumerates the
// categories currently known to the durable store and re-resolves each one
// through the normal pipeline with a forced refresh, pre-populating every
// cache tier for popular browse pages.
//
// The run is capped to a maximum number of categories to bound external
// provider spend per invocation; the enable flag and shared-secret check are
// enforced at the HTTP layer.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gstyle/go-shop-backend/internal/domain"
	"github.com/gstyle/go-shop-backend/internal/repo"
	"github.com/gstyle/go-shop-backend/internal/search"
)

// Resolver is the orchestrator contract consumed by the refresh job.
type Resolver interface {
	Resolve(ctx context.Context, rawQuery string, force bool) (*domain.SearchResult, error)
}

// CategoryRefresh summarizes the outcome for one category.
type CategoryRefresh struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
	Code     string `json:"code"`
}

// RefreshService force-refreshes known categories through the pipeline.
type RefreshService struct {
	DB            *gorm.DB
	Resolver      Resolver
	MaxCategories int
}

// Run executes one refresh pass and returns a per-category summary.
// Categories come from the durable store ordered stalest first, so a capped
// pass refreshes the categories most in need and rotates coverage across
// passes. On an empty store (cold deploy) the fixed classification space is
// used instead. A failing category is recorded and skipped, never aborting
// the pass.
func (s *RefreshService) Run(ctx context.Context) []CategoryRefresh {
	categories, err := repo.Categories(ctx, s.DB)
	if err != nil {
		log.Warn().Err(err).Msg("category enumeration failed, falling back to classification space")
	}
	if len(categories) == 0 {
		categories = search.Categories()
	}
	if len(categories) > s.MaxCategories {
		categories = categories[:s.MaxCategories]
	}

	out := make([]CategoryRefresh, 0, len(categories))
	for _, cat := range categories {
		res, err := s.Resolver.Resolve(ctx, cat, true)
		if err != nil {
			log.Warn().Err(err).Str("category", cat).Msg("category refresh failed")
			out = append(out, CategoryRefresh{Category: cat, Code: domain.CodeProviderError})
			continue
		}
		out = append(out, CategoryRefresh{Category: cat, Total: res.Total, Code: res.Code})
	}
	return out
}
