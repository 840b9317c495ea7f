package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gstyle/go-shop-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func product(id, key, category string, price float64, createdAt, expiresAt time.Time) domain.Product {
	return domain.Product{
		ID:        id,
		Query:     key,
		Category:  category,
		Title:     "item " + id,
		Price:     price,
		Link:      "https://shop.example.com/" + id,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
}

func TestFindCachedThreshold(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := []domain.Product{
		product("a", "search:kedi", "pets", 10, now, now.Add(time.Hour)),
		product("b", "search:kedi", "pets", 20, now, now.Add(time.Hour)),
		product("c", "search:kedi", "pets", 30, now, now.Add(time.Hour)),
	}
	if saved := UpsertProducts(ctx, db, batch); saved != 3 {
		t.Fatalf("UpsertProducts saved %d, want 3", saved)
	}

	// Below threshold: 3 < 16 is a miss, not a thin page.
	got, err := FindCached(ctx, db, "search:kedi", 16, now)
	if err != nil {
		t.Fatalf("FindCached: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss below threshold, got %d rows", len(got))
	}

	// At threshold: a hit.
	got, err = FindCached(ctx, db, "search:kedi", 3, now)
	if err != nil {
		t.Fatalf("FindCached: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 rows, got %d", len(got))
	}
}

func TestFindCachedIgnoresExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := []domain.Product{
		product("fresh1", "search:q", "general", 10, now, now.Add(time.Hour)),
		product("fresh2", "search:q", "general", 10, now, now.Add(time.Hour)),
		product("stale", "search:q", "general", 10, now.Add(-2*time.Hour), now.Add(-time.Hour)),
	}
	UpsertProducts(ctx, db, batch)

	// The expired row must not count toward the threshold.
	got, err := FindCached(ctx, db, "search:q", 3, now)
	if err != nil {
		t.Fatalf("FindCached: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss: only 2 fresh rows against threshold 3, got %d", len(got))
	}

	got, err = FindCached(ctx, db, "search:q", 2, now)
	if err != nil {
		t.Fatalf("FindCached: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the 2 fresh rows, got %d", len(got))
	}
	for _, p := range got {
		if p.ID == "stale" {
			t.Error("expired row returned from FindCached")
		}
	}
}

func TestUpsertPriceHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := product("p1", "search:q", "general", 100, now, now.Add(time.Hour))
	UpsertProducts(ctx, db, []domain.Product{first})

	var stored domain.Product
	if err := db.First(&stored, "id = ?", "p1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.PreviousPrice != nil {
		t.Errorf("fresh row must have no previous price, got %v", *stored.PreviousPrice)
	}

	// Price change: the old price becomes the depth-1 history.
	second := first
	second.Price = 80
	UpsertProducts(ctx, db, []domain.Product{second})

	if err := db.First(&stored, "id = ?", "p1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Price != 80 {
		t.Errorf("price = %v, want 80", stored.Price)
	}
	if stored.PreviousPrice == nil || *stored.PreviousPrice != 100 {
		t.Fatalf("previous price = %v, want 100", stored.PreviousPrice)
	}

	// Same price again: the history is carried, not overwritten to 80.
	third := second
	UpsertProducts(ctx, db, []domain.Product{third})

	if err := db.First(&stored, "id = ?", "p1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.PreviousPrice == nil || *stored.PreviousPrice != 100 {
		t.Errorf("previous price after no-change write = %v, want 100 (depth-1 keeps last differing)", stored.PreviousPrice)
	}

	var count int64
	db.Model(&domain.Product{}).Count(&count)
	if count != 1 {
		t.Errorf("upserts duplicated rows: count = %d, want 1", count)
	}
}

func TestPruneCategoryKeepsMostRecent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	ids := []string{"old1", "old2", "mid", "new1", "new2"}
	for i, id := range ids {
		p := product(id, "search:q", "pets", 10, base.Add(time.Duration(i)*time.Minute), base.Add(24*time.Hour))
		UpsertProducts(ctx, db, []domain.Product{p})
	}

	if err := PruneCategory(ctx, db, "pets", 3); err != nil {
		t.Fatalf("PruneCategory: %v", err)
	}

	var remaining []domain.Product
	if err := db.Order("created_at asc").Find(&remaining).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(remaining) != 3 {
		t.Fatalf("remaining = %d rows, want 3", len(remaining))
	}
	for _, p := range remaining {
		if p.ID == "old1" || p.ID == "old2" {
			t.Errorf("oldest row %s survived pruning", p.ID)
		}
	}
}

func TestPruneCategoryUnderCap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	UpsertProducts(ctx, db, []domain.Product{
		product("a", "search:q", "home", 10, now, now.Add(time.Hour)),
	})
	if err := PruneCategory(ctx, db, "home", 60); err != nil {
		t.Fatalf("PruneCategory: %v", err)
	}
	var count int64
	db.Model(&domain.Product{}).Count(&count)
	if count != 1 {
		t.Errorf("under-cap prune deleted rows: count = %d, want 1", count)
	}
}

func TestDeleteExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	UpsertProducts(ctx, db, []domain.Product{
		product("live", "search:q", "pets", 10, now, now.Add(time.Hour)),
		product("dead", "search:q", "pets", 10, now.Add(-2*time.Hour), now.Add(-time.Minute)),
	})

	n, err := DeleteExpired(ctx, db, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
	var remaining []domain.Product
	db.Find(&remaining)
	if len(remaining) != 1 || remaining[0].ID != "live" {
		t.Errorf("wrong survivors: %+v", remaining)
	}
}

func TestCategories(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	UpsertProducts(ctx, db, []domain.Product{
		product("a", "search:q1", "pets", 10, now, now.Add(time.Hour)),
		product("b", "search:q2", "pets", 10, now, now.Add(time.Hour)),
		product("c", "search:q3", "home", 10, now, now.Add(time.Hour)),
	})

	cats, err := Categories(ctx, db)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("categories = %v, want 2 distinct", cats)
	}
	seen := map[string]bool{}
	for _, c := range cats {
		seen[c] = true
	}
	if !seen["pets"] || !seen["home"] {
		t.Errorf("categories = %v, want pets and home", cats)
	}
}

func TestCategoriesStalestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	UpsertProducts(ctx, db, []domain.Product{
		product("h1", "search:q1", "home", 10, now.Add(-3*time.Hour), now.Add(time.Hour)),
		product("p1", "search:q2", "pets", 10, now.Add(-2*time.Hour), now.Add(time.Hour)),
		// electronics has an old row, but its newest write makes it the
		// freshest category overall.
		product("e1", "search:q3", "electronics", 10, now.Add(-4*time.Hour), now.Add(time.Hour)),
		product("e2", "search:q3", "electronics", 10, now.Add(-time.Hour), now.Add(time.Hour)),
	})

	cats, err := Categories(ctx, db)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	want := []string{"home", "pets", "electronics"}
	if len(cats) != len(want) {
		t.Fatalf("categories = %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Fatalf("categories = %v, want least recently written first: %v", cats, want)
		}
	}
}
