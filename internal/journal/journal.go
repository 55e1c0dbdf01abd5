package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one completed report, kept as history. The shared ledger only
// accumulates totals; the journal answers "who reported what, and when".
type Entry struct {
	ID             int64
	Reporter       string
	IncomeType     string
	Amount         int64
	Category       string
	CategoryAmount int64
	CreatedAt      time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert appends an entry and returns its id.
func (r *Repository) Insert(ctx context.Context, e Entry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (reporter, income_type, amount, category, category_amount)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Reporter, e.IncomeType, e.Amount, e.Category, e.CategoryAmount)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Journal entry saved",
		"id", id,
		"reporter", e.Reporter,
		"income_type", e.IncomeType,
		"amount", e.Amount)
	return id, nil
}

// ListRecent returns up to limit entries, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reporter, income_type, amount, category, category_amount, created_at
		 FROM entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Reporter, &e.IncomeType, &e.Amount, &e.Category, &e.CategoryAmount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TotalsByReporter sums the base amounts per reporter, for cross-checking
// the ledger.
func (r *Repository) TotalsByReporter(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT reporter, SUM(amount) FROM entries GROUP BY reporter`)
	if err != nil {
		return nil, fmt.Errorf("totals by reporter: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var reporter string
		var total int64
		if err := rows.Scan(&reporter, &total); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		out[reporter] = total
	}
	return out, rows.Err()
}
