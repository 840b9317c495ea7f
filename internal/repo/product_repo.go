// Package repo implements the durable cache tier, backed by GORM. This file
// provides repository functions for the Product model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic beyond the
// retention policy, only persistence and query composition.
//
// Retention is one explicit policy with two independent triggers, both
// evaluated after each write batch:
//   - age-based: rows past their per-row expiry are deleted (DeleteExpired);
//   - count-based: a category keeps at most its cap, oldest rows evicted
//     first (PruneCategory).
package repo

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gstyle/go-shop-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across layers.
var ErrNotFound = gorm.ErrRecordNotFound

// FindCached returns the non-expired products stored under the normalized
// query key, newest first, but only when at least minCount of them exist.
// A sparse result set below the threshold is reported as a miss (nil) so the
// caller re-fetches a full page instead of showing a thin one.
func FindCached(ctx context.Context, db *gorm.DB, key string, minCount int, now time.Time) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("query = ? AND expires_at > ?", key, now).
		Order("created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) < minCount {
		return nil, nil
	}
	return out, nil
}

// UpsertProducts persists a batch, one row at a time so a failure for one
// product never aborts the rest; failures are logged and skipped. Rows are
// upserted by the provider's natural ID (last-write-wins), and the depth-1
// price history is maintained here: when the stored price differs from the
// incoming one, the stored price becomes PreviousPrice on the new row.
// It returns the number of rows written.
func UpsertProducts(ctx context.Context, db *gorm.DB, products []domain.Product) int {
	saved := 0
	for i := range products {
		p := products[i]

		var existing domain.Product
		err := db.WithContext(ctx).Where("id = ?", p.ID).First(&existing).Error
		switch {
		case err == nil:
			if existing.Price != p.Price {
				prev := existing.Price
				p.PreviousPrice = &prev
			} else {
				p.PreviousPrice = existing.PreviousPrice
			}
		case err != gorm.ErrRecordNotFound:
			log.Warn().Err(err).Str("product_id", p.ID).Msg("product lookup failed, skipping")
			continue
		}

		if err := db.WithContext(ctx).Save(&p).Error; err != nil {
			log.Warn().Err(err).Str("product_id", p.ID).Msg("product upsert failed, skipping")
			continue
		}
		saved++
	}
	return saved
}

// PruneCategory enforces the count-based retention cap for one category by
// deleting the oldest rows beyond cap. Inserts are never refused; excess is
// trimmed after the fact.
func PruneCategory(ctx context.Context, db *gorm.DB, category string, cap int) error {
	var excess []string
	err := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("category = ?", category).
		Order("created_at desc").
		Offset(cap).
		Limit(-1).
		Pluck("id", &excess).Error
	if err != nil {
		return err
	}
	if len(excess) == 0 {
		return nil
	}
	return db.WithContext(ctx).Delete(&domain.Product{}, "id IN ?", excess).Error
}

// DeleteExpired removes every row whose per-row expiry has passed. Crash
// between a write batch and this cleanup is harmless: the next successful
// batch re-runs it (self-healing, not transactional).
func DeleteExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Delete(&domain.Product{}, "expires_at <= ?", now)
	return res.RowsAffected, res.Error
}

// Categories enumerates the distinct categories currently stored, least
// recently written first. The refresh job uses this to know what to
// re-resolve; the staleness order makes its per-run cap rotate coverage
// instead of refreshing the same arbitrary subset every pass.
func Categories(ctx context.Context, db *gorm.DB) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Product{}).
		Select("category").
		Group("category").
		Order("MAX(created_at) ASC").
		Pluck("category", &out).Error
	return out, err
}
