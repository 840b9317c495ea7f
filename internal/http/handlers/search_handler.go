// Search HTTP handlers.
//
// This file exposes the public storefront endpoints:
//   - GET /search     (product search through the tier chain)
//   - GET /discounts  (discounted products through the tier chain)
//
// Handlers are transport-thin: they parse the query parameters, call the
// resolve pipeline, and shape the result into the response envelope. A
// provider failure never surfaces as an HTTP error: the pipeline reports it
// inside the payload with a localized message, and the endpoint still returns
// 200 so storefront pages render a friendly empty state instead of breaking.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gstyle/go-shop-backend/internal/domain"
	"github.com/gstyle/go-shop-backend/internal/services"
)

// SearchResolver is the resolve pipeline contract consumed by the search and
// discount endpoints. Implementations must be safe for concurrent use and
// honor the context for cancellation.
type SearchResolver interface {
	Resolve(ctx context.Context, rawQuery string, force bool) (*domain.SearchResult, error)
}

// SearchResponse is the success envelope of both search endpoints.
type SearchResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	// Message carries a localized notice on degraded or empty results.
	Message string `json:"message,omitempty"`
	// Code is "ok", "empty", or "provider_error".
	Code string `json:"code"`
	// Cached reports whether the payload was served from a cache tier.
	Cached bool `json:"cached"`
	// Source names the tier that served the payload: memory, redis, db,
	// or provider.
	Source string `json:"source"`
}

// Handlers groups the storefront endpoints. Search and discounts share the
// handler logic and differ only in the pipeline instance behind them.
type Handlers struct {
	searchSvc   SearchResolver
	discountSvc SearchResolver
}

// New constructs a Handlers instance bound to the two resolve pipelines.
func New(searchSvc, discountSvc SearchResolver) *Handlers {
	return &Handlers{searchSvc: searchSvc, discountSvc: discountSvc}
}

// Search handles GET /search?q=<query>&force=0|1.
//
// q is the raw user query (required). force=1 bypasses every cache tier and
// refreshes from the provider; any other value, or absence, means normal
// tiered resolution. A blank q yields 400 with code bad_request.
func (h *Handlers) Search(c *gin.Context) {
	h.resolve(c, h.searchSvc, c.Query("q"))
}

// Discounts handles GET /discounts?q=<query>&force=0|1.
//
// The parameter contract matches Search; q defaults to a generic deals query
// when absent, since the discounts page is commonly opened without one.
func (h *Handlers) Discounts(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		q = "indirimli ürünler"
	}
	h.resolve(c, h.discountSvc, q)
}

// resolve runs the shared endpoint logic against the given pipeline.
func (h *Handlers) resolve(c *gin.Context, svc SearchResolver, q string) {
	force := c.Query("force") == "1"

	res, err := svc.Resolve(c.Request.Context(), q, force)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, "search pipeline failed")
		return
	}

	ok(c, http.StatusOK, SearchResponse{
		Products: res.Products,
		Total:    res.Total,
		Message:  res.Message,
		Code:     res.Code,
		Cached:   res.Cached,
		Source:   res.Source,
	})
}
