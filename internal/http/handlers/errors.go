// Package handlers defines the HTTP-layer error codes used across endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them for
// programmatic error handling, so renaming one is a breaking change. Generic
// codes mirror HTTP status semantics; domain codes cover outcomes a status
// alone cannot convey.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeSearchFailed     = "search_failed"
	ErrCodeRefreshDisabled  = "refresh_disabled"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
