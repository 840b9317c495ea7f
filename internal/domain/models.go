// Package domain defines the persistence and transport models for the
// product-search pipeline. Product rows are mapped with GORM and form the
// durable cache tier; SearchResult is the payload shared by every cache tier
// and by the HTTP layer.
package domain

import (
	"time"
)

// Result source labels reported in SearchResult.Source. They name the cache
// tier (or the external provider) that satisfied a request.
const (
	SourceMemory   = "memory"
	SourceRedis    = "redis"
	SourceDB       = "db"
	SourceProvider = "provider"
)

// Result codes reported in SearchResult.Code. A legitimate empty search and a
// provider failure both render an empty product list; the code is the only
// signal that tells them apart.
const (
	CodeOK            = "ok"
	CodeEmpty         = "empty"
	CodeProviderError = "provider_error"
)

// Product is a single enriched product offer persisted in the durable tier.
//
// Fields:
//   - ID: the external provider's product identifier (natural key). Repeated
//     enrichment runs upsert by this ID instead of duplicating rows.
//   - Query: normalized query key the product was fetched under; shared with
//     the volatile and Redis tiers so all three probe the same key.
//   - Title / TitleFA: original (Turkish/English) and translated (Persian)
//     titles. TitleFA falls back to Title when translation is unavailable.
//   - Price: normalized numeric price. Always > 0; items without a parseable
//     positive price are never persisted.
//   - PreviousPrice: the last *different* price observed for this ID
//     (depth-1 price history), used to display discounts.
//   - OriginalPrice: the provider-reported pre-discount price, when present.
//   - ExpiresAt: per-row expiry; expired rows never count toward a durable
//     tier hit and are deleted opportunistically after writes.
type Product struct {
	ID            string    `json:"id"             gorm:"type:varchar(128);primaryKey"`
	Query         string    `json:"-"              gorm:"type:varchar(255);not null;index:idx_query_products"`
	Category      string    `json:"category"       gorm:"type:varchar(64);not null;index:idx_category_products"`
	Title         string    `json:"title"          gorm:"type:text;not null"`
	TitleFA       string    `json:"title_fa"       gorm:"type:text"`
	Price         float64   `json:"price"          gorm:"not null"`
	PreviousPrice *float64  `json:"previous_price,omitempty"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	Link          string    `json:"link"           gorm:"type:text;not null"`
	Thumbnail     string    `json:"thumbnail"      gorm:"type:text"`
	Source        string    `json:"source"         gorm:"type:varchar(128)"`
	Rating        *float64  `json:"rating,omitempty"`
	Reviews       *int      `json:"reviews,omitempty"`
	CreatedAt     time.Time `json:"created_at"     gorm:"index:idx_category_created"`
	ExpiresAt     time.Time `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Discounted reports whether the product has a known higher prior price
// (either provider-reported or locally observed).
func (p *Product) Discounted() bool {
	if p.OriginalPrice != nil && *p.OriginalPrice > p.Price {
		return true
	}
	return p.PreviousPrice != nil && *p.PreviousPrice > p.Price
}

// SearchResult is the resolved payload for one normalized query. It is the
// value cached wholesale in the volatile and Redis tiers and returned to the
// HTTP client. Entries are immutable once written; a refresh replaces the
// whole payload.
type SearchResult struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Message  string    `json:"message,omitempty"`
	Code     string    `json:"code"`
	Cached   bool      `json:"cached"`
	Source   string    `json:"source"`
}

// Empty builds the empty-result payload used both for legitimate zero-result
// searches and for provider failures; the two differ only by code.
func Empty(code, message string) *SearchResult {
	return &SearchResult{
		Products: []Product{},
		Total:    0,
		Message:  message,
		Code:     code,
		Source:   SourceProvider,
	}
}
