// Package providers contains thin HTTP clients for the external services the
// enrichment pipeline depends on: the shopping-search provider and the
// best-effort text-generation provider. Both are treated as black boxes; all
// domain logic (filtering, classification, link extraction) lives elsewhere.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/gstyle/go-shop-backend/internal/config"
)

// ErrNotConfigured signals that the provider has no API key. The pipeline
// treats this as a valid degraded mode, not a failure.
var ErrNotConfigured = errors.New("shopping provider not configured")

// Item is one raw offer as returned by the shopping-search provider, before
// any filtering or translation. Link fields are kept separate because link
// extraction walks them in priority order.
type Item struct {
	ProductID         string   `json:"product_id"`
	Title             string   `json:"title"`
	Price             string   `json:"price"`
	ExtractedPrice    float64  `json:"extracted_price"`
	OldPrice          string   `json:"old_price"`
	ExtractedOldPrice float64  `json:"extracted_old_price"`
	Link              string   `json:"link"`
	ProductLink       string   `json:"product_link"`
	SerpLink          string   `json:"serpapi_product_api"`
	Thumbnail         string   `json:"thumbnail"`
	Source            string   `json:"source"`
	Rating            *float64 `json:"rating,omitempty"`
	Reviews           *int     `json:"reviews,omitempty"`
}

// searchResponse mirrors the provider's JSON envelope.
type searchResponse struct {
	ShoppingResults []Item `json:"shopping_results"`
	Error           string `json:"error"`
}

// ShoppingClient calls the external shopping-search provider with bounded
// retries and linear backoff on transient failure.
type ShoppingClient struct {
	cfg  config.ShoppingConfig
	http *http.Client
}

// NewShoppingClient builds a client from config. The HTTP timeout bounds
// each attempt individually.
func NewShoppingClient(cfg config.ShoppingConfig) *ShoppingClient {
	return &ShoppingClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether an API key is present.
func (c *ShoppingClient) Configured() bool { return c.cfg.APIKey != "" }

// Search fetches shopping results for query. Transient failures are retried
// up to MaxRetries extra attempts with linear backoff (delay, 2*delay, ...);
// exhausted retries propagate the last error so the pipeline can report a
// provider failure.
func (c *ShoppingClient) Search(ctx context.Context, query string) ([]Item, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.cfg.RetryDelay
			log.Debug().Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying shopping search")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		items, err := c.searchOnce(ctx, query)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("shopping search failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *ShoppingClient) searchOnce(ctx context.Context, query string) ([]Item, error) {
	q := url.Values{}
	q.Set("engine", c.cfg.Engine)
	q.Set("q", query)
	q.Set("gl", c.cfg.Country)
	q.Set("hl", c.cfg.Language)
	q.Set("num", strconv.Itoa(c.cfg.ResultNum))
	q.Set("device", "desktop")
	q.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shopping provider returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := jsoniter.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding shopping response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("shopping provider error: %s", body.Error)
	}
	return body.ShoppingResults, nil
}
