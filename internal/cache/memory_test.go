package cache

import (
	"testing"
	"time"

	"github.com/gstyle/go-shop-backend/internal/domain"
)

func payload(code string, n int) *domain.SearchResult {
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = domain.Product{ID: "p" + string(rune('a'+i)), Title: "item", Price: 10}
	}
	return &domain.SearchResult{Products: products, Total: n, Code: code}
}

func TestMemoryCacheGetSet(t *testing.T) {
	m := NewMemoryCache(time.Minute)

	if _, ok := m.Get("kedi maması"); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := payload(domain.CodeOK, 3)
	m.Set("kedi maması", want)

	got, ok := m.Get("kedi maması")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.Total != 3 || got.Code != domain.CodeOK {
		t.Errorf("got total=%d code=%q, want total=3 code=ok", got.Total, got.Code)
	}

	if _, ok := m.Get("different key"); ok {
		t.Error("expected miss for a different key")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	m := NewMemoryCache(50 * time.Millisecond)
	m.Set("k", payload(domain.CodeOK, 1))

	if _, ok := m.Get("k"); !ok {
		t.Fatal("expected hit immediately after Set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := m.Get("k"); ok {
		t.Error("expected stale entry to behave as a miss")
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	m := NewMemoryCache(time.Minute)
	m.Set("k", payload(domain.CodeOK, 1))
	m.Invalidate("k")
	if _, ok := m.Get("k"); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestMemoryCacheSetRestartsTTL(t *testing.T) {
	m := NewMemoryCache(120 * time.Millisecond)
	m.Set("k", payload(domain.CodeOK, 1))
	time.Sleep(80 * time.Millisecond)

	// Overwrite restarts freshness for the full TTL.
	m.Set("k", payload(domain.CodeOK, 2))
	time.Sleep(80 * time.Millisecond)

	got, ok := m.Get("k")
	if !ok {
		t.Fatal("expected hit: second write restarted the TTL")
	}
	if got.Total != 2 {
		t.Errorf("got total=%d, want the overwritten payload (2)", got.Total)
	}
}
