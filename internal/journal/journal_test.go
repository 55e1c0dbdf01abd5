package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestInsertAndListRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.Insert(ctx, Entry{Reporter: "Anna B", IncomeType: "Own", Amount: 750, Category: "Film", CategoryAmount: 1000})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := repo.Insert(ctx, Entry{Reporter: "Anna B", IncomeType: "Studio", Amount: 1200, Category: "Self-care"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}

	entries, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].IncomeType != "Studio" || entries[0].CategoryAmount != 0 {
		t.Fatalf("unexpected newest entry: %+v", entries[0])
	}
	if entries[1].Amount != 750 || entries[1].Category != "Film" {
		t.Fatalf("unexpected oldest entry: %+v", entries[1])
	}
	if entries[0].CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}
}

func TestTotalsByReporter(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	seed := []Entry{
		{Reporter: "Anna B", IncomeType: "Own", Amount: 500, Category: "Film", CategoryAmount: 1000},
		{Reporter: "Anna B", IncomeType: "Own", Amount: 300, Category: "Self-care"},
		{Reporter: "Kira M", IncomeType: "Studio", Amount: 900, Category: "Kit", CategoryAmount: 500},
	}
	for _, e := range seed {
		if _, err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	totals, err := repo.TotalsByReporter(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals["Anna B"] != 800 {
		t.Fatalf("Anna B total = %d, want 800", totals["Anna B"])
	}
	if totals["Kira M"] != 900 {
		t.Fatalf("Kira M total = %d, want 900", totals["Kira M"])
	}
}
