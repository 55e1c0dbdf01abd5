package ledger

import (
	"context"
	"errors"

	"prihod/internal/core"
)

// ErrUnavailable is returned by adapters for transport or auth failures.
// A missing row is not an error; FindRow reports it through found=false.
var ErrUnavailable = errors.New("ledger store unavailable")

// Store is the outbound port to the shared tabular ledger. Every call
// round-trips to the store; adapters do no local buffering or caching.
type Store interface {
	// FindRow searches column 1 for an exact match of the trimmed key.
	// found=false is a normal outcome signaling the row must be created.
	FindRow(ctx context.Context, key string) (row int64, found bool, err error)

	// ReadCell returns the raw cell text; empty cells yield "".
	ReadCell(ctx context.Context, row int64, col core.Column) (string, error)

	// WriteCell overwrites a single cell.
	WriteCell(ctx context.Context, row int64, col core.Column, value string) error

	// AppendRow creates a new row with key in column 1 and returns its index.
	// The accumulator columns are left empty and read back as 0.
	AppendRow(ctx context.Context, key string) (int64, error)
}
