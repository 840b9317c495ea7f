// Refresh HTTP handler.
//
// This file exposes the guarded internal trigger for the category refresh
// job:
//   - POST /internal/refresh
//
// The endpoint is meant for a cron-style scheduler, not for browsers: it is
// disabled unless configured, and when enabled requires the shared secret in
// the X-Refresh-Secret header. Each accepted call runs one refresh pass and
// returns the per-category summary.
package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gstyle/go-shop-backend/internal/services"
)

// refreshSecretHeader carries the shared secret on refresh requests.
const refreshSecretHeader = "X-Refresh-Secret"

// RefreshRunner is the refresh job contract consumed by the handler.
type RefreshRunner interface {
	Run(ctx context.Context) []services.CategoryRefresh
}

// RefreshResponse is the success envelope of the refresh endpoint.
type RefreshResponse struct {
	Refreshed []services.CategoryRefresh `json:"refreshed"`
}

// RefreshHandler guards and triggers the category refresh job.
type RefreshHandler struct {
	Enabled bool
	Secret  string
	Job     RefreshRunner
}

// Refresh handles POST /internal/refresh.
//
// Responses: 404 refresh_disabled when the job is not enabled (hiding the
// endpoint's existence), 401 unauthorized on a missing or wrong secret,
// 200 with the per-category summary otherwise. Secret comparison is
// constant-time.
func (h *RefreshHandler) Refresh(c *gin.Context) {
	if !h.Enabled {
		fail(c, http.StatusNotFound, ErrCodeRefreshDisabled, "refresh job is not enabled")
		return
	}
	got := c.GetHeader(refreshSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid refresh secret")
		return
	}

	out := h.Job.Run(c.Request.Context())
	ok(c, http.StatusOK, RefreshResponse{Refreshed: out})
}
