package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gstyle/go-shop-backend/internal/config"
	"github.com/gstyle/go-shop-backend/internal/repo"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, nil, cfg)
	return r
}

func TestRouterHealth(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/health status = %d, want 200", w.Code)
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", w.Code)
	}
}

func TestRouterSearchRequiresQuery(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("search without q: status = %d, want 400", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "bad_request" {
		t.Errorf("code = %v, want bad_request", body["code"])
	}
	if body["request_id"] == "" {
		t.Error("error envelope missing request id")
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("404 body not JSON: %v", err)
	}
	if body["code"] != "not_found" {
		t.Errorf("code = %v, want not_found", body["code"])
	}
}

func TestRouterRefreshDisabledByDefault(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/internal/refresh", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("refresh status = %d, want 404 while disabled", w.Code)
	}
}

func TestRouterSecurityHeadersApplied(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied on the engine")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id missing on response")
	}
}
