package backend

import (
	"context"
	"fmt"
	"log/slog"

	"prihod/internal/config"
	"prihod/internal/ledger"
	"prihod/internal/ledger/google"
	"prihod/internal/ledger/memory"
)

// Type selects which ledger store implementation backs the bot.
type Type string

const (
	MemoryBackend Type = "memory"
	SheetsBackend Type = "sheets"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the store instance and optional cleanup function
type Result struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// Factory creates ledger stores based on configuration
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore creates a ledger store based on the configured backend type.
func (f *Factory) CreateStore(ctx context.Context, cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.LedgerBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.LedgerBackend)
	}

	switch backendType {
	case SheetsBackend:
		return f.createSheetsStore(ctx)
	case MemoryBackend:
		return f.createMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}

func (f *Factory) createSheetsStore(ctx context.Context) (*Result, error) {
	cli, err := google.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &Result{
		Store:   cli,
		Cleanup: nil, // No cleanup needed for sheets backend
	}, nil
}

func (f *Factory) createMemoryStore() (*Result, error) {
	store := memory.New()

	f.logger.Info("Initialized memory backend")

	return &Result{
		Store:   store,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
