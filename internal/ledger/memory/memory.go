package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"prihod/internal/core"
	"prihod/internal/ledger"
)

const columns = 5

// Store is an in-memory ledger used in tests and local development.
// Row indices are 1-based, matching the spreadsheet adapter.
type Store struct {
	mu   sync.Mutex
	rows [][]string
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) FindRow(_ context.Context, key string) (int64, bool, error) {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if strings.TrimSpace(row[0]) == key {
			return int64(i + 1), true, nil
		}
	}
	return 0, false, nil
}

func (s *Store) ReadCell(_ context.Context, row int64, col core.Column) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(row, col); err != nil {
		return "", err
	}
	return s.rows[row-1][col-1], nil
}

func (s *Store) WriteCell(_ context.Context, row int64, col core.Column, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(row, col); err != nil {
		return err
	}
	s.rows[row-1][col-1] = value
	return nil
}

func (s *Store) AppendRow(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := make([]string, columns)
	row[0] = strings.TrimSpace(key)
	s.rows = append(s.rows, row)
	return int64(len(s.rows)), nil
}

// Rows returns a copy of the grid for inspection in tests.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (s *Store) check(row int64, col core.Column) error {
	if row < 1 || row > int64(len(s.rows)) {
		return fmt.Errorf("row %d out of range", row)
	}
	if col < 1 || int(col) > columns {
		return fmt.Errorf("column %d out of range", col)
	}
	return nil
}
