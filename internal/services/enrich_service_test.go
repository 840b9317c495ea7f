package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gstyle/go-shop-backend/internal/domain"
	"github.com/gstyle/go-shop-backend/internal/providers"
	"github.com/gstyle/go-shop-backend/internal/repo"
	"github.com/gstyle/go-shop-backend/internal/search"
)

// fakeSearcher returns canned items or a canned error.
type fakeSearcher struct {
	items []providers.Item
	err   error
	calls int
	last  string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]providers.Item, error) {
	f.calls++
	f.last = query
	return f.items, f.err
}

// passthroughTranslator mimics the unconfigured provider: input out unchanged.
type passthroughTranslator struct{}

func (passthroughTranslator) RewriteQuery(ctx context.Context, q string) string   { return q }
func (passthroughTranslator) TranslateTitle(ctx context.Context, t string) string { return t }

// prefixTranslator marks outputs so tests can see translation happened.
type prefixTranslator struct{}

func (prefixTranslator) RewriteQuery(ctx context.Context, q string) string { return "rw:" + q }
func (prefixTranslator) TranslateTitle(ctx context.Context, t string) string {
	return "fa:" + t
}

func enrichTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "enrich.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func item(id, title, link string, price float64) providers.Item {
	return providers.Item{
		ProductID:      id,
		Title:          title,
		ProductLink:    link,
		ExtractedPrice: price,
	}
}

func newEnrich(db *gorm.DB, s Searcher, tr Translator) *EnrichService {
	return &EnrichService{
		DB:          db,
		Shopping:    s,
		Translator:  tr,
		Namespace:   "search",
		ProductTTL:  time.Hour,
		CategoryCap: 60,
	}
}

func TestEnrichSuccessPersists(t *testing.T) {
	db := enrichTestDB(t)
	searcher := &fakeSearcher{items: []providers.Item{
		item("p1", "kedi maması 10kg", "https://shop.example.com/1", 100),
		item("p2", "köpek maması", "https://shop.example.com/2", 200),
	}}
	svc := newEnrich(db, searcher, prefixTranslator{})

	res := svc.Enrich(context.Background(), "kedi maması", "kedi maması")

	if res.Code != domain.CodeOK {
		t.Fatalf("code = %q, want ok", res.Code)
	}
	if res.Total != 2 || len(res.Products) != 2 {
		t.Fatalf("total = %d, want 2", res.Total)
	}
	if searcher.last != "rw:kedi maması" {
		t.Errorf("provider got %q, want rewritten query", searcher.last)
	}
	for _, p := range res.Products {
		if !strings.HasPrefix(p.TitleFA, "fa:") {
			t.Errorf("product %s: TitleFA = %q, want translated", p.ID, p.TitleFA)
		}
		if p.Query != "search:kedi maması" {
			t.Errorf("product %s: query key = %q, want namespaced", p.ID, p.Query)
		}
		if p.Category != "pets" {
			t.Errorf("product %s: category = %q, want pets", p.ID, p.Category)
		}
	}

	stored, err := repo.FindCached(context.Background(), db, "search:kedi maması", 2, time.Now().UTC())
	if err != nil {
		t.Fatalf("FindCached: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("durable tier holds %d rows, want 2", len(stored))
	}
}

func TestEnrichProviderFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("upstream 500")}
	svc := newEnrich(nil, searcher, passthroughTranslator{})

	res := svc.Enrich(context.Background(), "kedi", "kedi")

	if res.Code != domain.CodeProviderError {
		t.Fatalf("code = %q, want provider_error", res.Code)
	}
	if len(res.Products) != 0 || res.Total != 0 {
		t.Error("provider failure must yield an empty product list")
	}
	if strings.TrimSpace(res.Message) == "" {
		t.Error("provider failure must carry a non-empty localized message")
	}
	if res.Message != MsgSearchUnavailable {
		t.Errorf("message = %q, want MsgSearchUnavailable", res.Message)
	}
}

func TestEnrichNotConfiguredServesSamples(t *testing.T) {
	db := enrichTestDB(t)
	searcher := &fakeSearcher{err: providers.ErrNotConfigured}
	svc := newEnrich(db, searcher, passthroughTranslator{})

	res := svc.Enrich(context.Background(), "kedi", "kedi")

	if res.Code != domain.CodeOK {
		t.Fatalf("code = %q, want ok (sample mode is not a failure)", res.Code)
	}
	if len(res.Products) == 0 {
		t.Fatal("sample mode must return placeholder products")
	}
	if res.Message != MsgSampleMode {
		t.Errorf("message = %q, want MsgSampleMode", res.Message)
	}

	// Samples are never persisted.
	var count int64
	db.Model(&domain.Product{}).Count(&count)
	if count != 0 {
		t.Errorf("sample products persisted: count = %d, want 0", count)
	}
}

func TestEnrichEmptySurvivors(t *testing.T) {
	searcher := &fakeSearcher{items: []providers.Item{
		// Filtered by exclusion keywords.
		item("p1", "kadın iç çamaşırı", "https://shop.example.com/1", 50),
		// No parseable price and no structured one.
		{ProductID: "p2", Title: "fiyatsız ürün", ProductLink: "https://shop.example.com/2"},
	}}
	svc := newEnrich(nil, searcher, passthroughTranslator{})

	res := svc.Enrich(context.Background(), "çamaşır", "çamaşır")

	if res.Code != domain.CodeEmpty {
		t.Fatalf("code = %q, want empty", res.Code)
	}
	if res.Message != MsgNothingFound {
		t.Errorf("message = %q, want MsgNothingFound", res.Message)
	}
}

func TestEnrichDiscountsOnly(t *testing.T) {
	items := []providers.Item{
		item("full", "ayakkabı", "https://shop.example.com/full", 100),
		{
			ProductID:         "deal",
			Title:             "ayakkabı indirimli",
			ProductLink:       "https://shop.example.com/deal",
			ExtractedPrice:    80,
			ExtractedOldPrice: 120,
		},
	}
	svc := newEnrich(nil, &fakeSearcher{items: items}, passthroughTranslator{})
	svc.DiscountsOnly = true

	res := svc.Enrich(context.Background(), "ayakkabı", "ayakkabı")

	if len(res.Products) != 1 {
		t.Fatalf("got %d products, want only the discounted one", len(res.Products))
	}
	p := res.Products[0]
	if p.ID != "deal" {
		t.Errorf("kept %q, want deal", p.ID)
	}
	if p.OriginalPrice == nil || *p.OriginalPrice != 120 {
		t.Errorf("original price = %v, want 120", p.OriginalPrice)
	}
}

func TestEnrichDeduplicatesAndDerivesIDs(t *testing.T) {
	items := []providers.Item{
		item("dup", "ürün bir", "https://shop.example.com/1", 10),
		item("dup", "ürün bir kopya", "https://shop.example.com/1", 10),
		// Missing provider ID: derived from the link, stable across runs.
		{Title: "ürün iki", ProductLink: "https://shop.example.com/2", ExtractedPrice: 20},
	}
	svc := newEnrich(nil, &fakeSearcher{items: items}, passthroughTranslator{})

	res := svc.Enrich(context.Background(), "ürün", "ürün")

	if len(res.Products) != 2 {
		t.Fatalf("got %d products, want 2 after dedupe", len(res.Products))
	}
	var derived string
	for _, p := range res.Products {
		if p.ID == "" {
			t.Error("product with empty ID survived")
		}
		if p.Title == "ürün iki" {
			derived = p.ID
		}
	}
	if derived == "" {
		t.Fatal("link-derived product missing")
	}

	res2 := svc.Enrich(context.Background(), "ürün", "ürün")
	for _, p := range res2.Products {
		if p.Title == "ürün iki" && p.ID != derived {
			t.Errorf("derived ID not stable: %q vs %q", p.ID, derived)
		}
	}
}

func TestEnrichBatchTimestampsTotallyOrdered(t *testing.T) {
	searcher := &fakeSearcher{items: []providers.Item{
		item("p1", "ürün bir", "https://shop.example.com/1", 10),
		item("p2", "ürün iki", "https://shop.example.com/2", 20),
		item("p3", "ürün üç", "https://shop.example.com/3", 30),
	}}
	svc := newEnrich(nil, searcher, passthroughTranslator{})

	res := svc.Enrich(context.Background(), "ürün", "ürün")
	if len(res.Products) != 3 {
		t.Fatalf("got %d products, want 3", len(res.Products))
	}

	// Distinct write timestamps give the count-based eviction a total
	// order within one batch.
	for i := 1; i < len(res.Products); i++ {
		prev, cur := res.Products[i-1], res.Products[i]
		if !prev.CreatedAt.Before(cur.CreatedAt) {
			t.Errorf("created_at[%d]=%v not before created_at[%d]=%v", i-1, prev.CreatedAt, i, cur.CreatedAt)
		}
		if prev.ExpiresAt.Sub(prev.CreatedAt) != cur.ExpiresAt.Sub(cur.CreatedAt) {
			t.Errorf("per-item TTL drifted between %s and %s", prev.ID, cur.ID)
		}
	}
}

func TestEnrichFallsBackToStringPrice(t *testing.T) {
	items := []providers.Item{
		{ProductID: "p", Title: "ürün", ProductLink: "https://shop.example.com/p", Price: "₺1.234,56"},
	}
	svc := newEnrich(nil, &fakeSearcher{items: items}, passthroughTranslator{})

	res := svc.Enrich(context.Background(), "ürün", "ürün")
	if len(res.Products) != 1 {
		t.Fatalf("got %d products, want 1", len(res.Products))
	}
	if got := res.Products[0].Price; got != 1234.56 {
		t.Errorf("price = %v, want 1234.56", got)
	}
}

func TestEnrichAppliesDomainAllowlist(t *testing.T) {
	items := []providers.Item{
		item("ok", "ürün", "https://www.trendyol.com/p/1", 10),
		item("blocked", "ürün iki", "https://other.example.com/p/2", 20),
	}
	svc := newEnrich(nil, &fakeSearcher{items: items}, passthroughTranslator{})
	svc.Filter = search.FilterOptions{AllowedDomains: []string{"trendyol.com"}}

	res := svc.Enrich(context.Background(), "ürün", "ürün")
	if len(res.Products) != 1 || res.Products[0].ID != "ok" {
		t.Errorf("allowlist kept %v, want only trendyol item", res.Products)
	}
}
