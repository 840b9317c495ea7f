// Package services implements the application layer of the product-search
// pipeline: the enrichment pipeline, the cache orchestrator, and the
// scheduled category refresh. This file centralizes service-level error
// values and the user-facing localized messages.
//
// Errors here are internal; translation into HTTP statuses happens at the
// handler layer. User-visible failure is always a polite Persian message
// plus an empty product list, never a raw provider error body.
package services

import "errors"

var (
	// ErrEmptyQuery is returned when a resolve request carries a blank query.
	// Blank input is rejected before normalization ever runs.
	ErrEmptyQuery = errors.New("query is empty")
)

// Localized user-facing messages. A legitimate empty search and a provider
// failure render the same empty product list; the response code is the only
// machine-readable difference.
const (
	// MsgNothingFound — "nothing was found".
	MsgNothingFound = "موردی یافت نشد"
	// MsgSearchUnavailable — "search is currently unavailable, please try again later".
	MsgSearchUnavailable = "جستجو در حال حاضر در دسترس نیست، لطفاً کمی بعد دوباره تلاش کنید"
	// MsgSampleMode — "sample results; search is not configured".
	MsgSampleMode = "نتایج نمونه؛ سرویس جستجو پیکربندی نشده است"
)
