package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"prihod/internal/core"
)

// Updater performs find-or-create plus read-modify-write accumulation
// against a Store that has no native transactions.
//
// The store cannot serialize concurrent writers, so two updates for the
// same identity could otherwise interleave and lose an increment. Updates
// are serialized per identity with an in-process mutex; this covers a
// single-process deployment only, a store with atomic increments would be
// needed beyond that.
type Updater struct {
	store Store

	mu    sync.Mutex
	locks map[string]*identityLock
}

// identityLock is reference counted so the map entry can be dropped once
// the last holder releases it, keeping the map bounded by in-flight
// updates rather than every identity ever seen.
type identityLock struct {
	mu   sync.Mutex
	refs int
}

func NewUpdater(store Store) *Updater {
	return &Updater{
		store: store,
		locks: make(map[string]*identityLock),
	}
}

// Accumulate ensures a row exists for identity and adds delta to the given
// column. delta is a text-encoded non-negative integer. Malformed or empty
// cell contents count as 0. Store failures are logged and returned; the
// caller is expected not to retry.
func (u *Updater) Accumulate(ctx context.Context, identity string, col core.Column, delta string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return core.ErrEmptyReporter
	}
	if !core.ValidAmount(delta) {
		return fmt.Errorf("%w: %q", core.ErrInvalidAmount, delta)
	}
	add, err := strconv.ParseInt(delta, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidAmount, delta)
	}

	lock := u.acquireLock(identity)
	lock.mu.Lock()
	defer u.releaseLock(identity, lock)

	row, found, err := u.store.FindRow(ctx, identity)
	if err != nil {
		slog.ErrorContext(ctx, "Ledger row lookup failed", "identity", identity, "error", err)
		return fmt.Errorf("find row: %w", err)
	}
	if !found {
		row, err = u.store.AppendRow(ctx, identity)
		if err != nil {
			slog.ErrorContext(ctx, "Ledger row creation failed", "identity", identity, "error", err)
			return fmt.Errorf("append row: %w", err)
		}
	}

	raw, err := u.store.ReadCell(ctx, row, col)
	if err != nil {
		slog.ErrorContext(ctx, "Ledger cell read failed", "identity", identity, "row", row, "column", int(col), "error", err)
		return fmt.Errorf("read cell: %w", err)
	}
	current := parseCell(raw)

	next := strconv.FormatInt(current+add, 10)
	if err := u.store.WriteCell(ctx, row, col, next); err != nil {
		slog.ErrorContext(ctx, "Ledger cell write failed", "identity", identity, "row", row, "column", int(col), "error", err)
		return fmt.Errorf("write cell: %w", err)
	}

	slog.InfoContext(ctx, "Ledger cell accumulated",
		"identity", identity,
		"row", row,
		"column", int(col),
		"delta", delta,
		"value", next)
	return nil
}

func (u *Updater) acquireLock(identity string) *identityLock {
	u.mu.Lock()
	defer u.mu.Unlock()
	lock, ok := u.locks[identity]
	if !ok {
		lock = &identityLock{}
		u.locks[identity] = lock
	}
	lock.refs++
	return lock
}

func (u *Updater) releaseLock(identity string, lock *identityLock) {
	lock.mu.Unlock()
	u.mu.Lock()
	defer u.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(u.locks, identity)
	}
}

// parseCell treats anything that is not a plain digit string as 0. The
// ledger is shared and hand-edited; a corrupt cell must not block reporting.
func parseCell(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if !core.ValidAmount(raw) {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
