package session

import (
	"sync"
	"time"

	"prihod/internal/core"
)

type State int

const (
	AwaitingType State = iota
	AwaitingAmount
	AwaitingCategory
	AwaitingCategoryAmount
)

func (s State) String() string {
	switch s {
	case AwaitingType:
		return "awaiting_type"
	case AwaitingAmount:
		return "awaiting_amount"
	case AwaitingCategory:
		return "awaiting_category"
	case AwaitingCategoryAmount:
		return "awaiting_category_amount"
	}
	return "unknown"
}

// Session is the ephemeral per-reporter conversation state. Fields are
// filled strictly in order: Type, then Amount, then Category.
type Session struct {
	State    State
	Type     core.IncomeType
	Amount   string
	Category core.Category
}

type entry struct {
	mu       sync.Mutex
	sess     Session
	lastSeen time.Time
	gone     bool
}

// Store keeps one session per reporter identity. Acquire hands out the
// session under a per-identity lock, so two messages for the same reporter
// are never processed concurrently while reporters stay independent of
// each other.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

// Acquire returns the reporter's session with exclusive ownership, creating
// a fresh one in AwaitingType if none exists. created reports whether the
// session was just made. The returned release func must be called when the
// message has been fully processed.
func (s *Store) Acquire(id int64) (sess *Session, created bool, release func()) {
	for {
		s.mu.Lock()
		e, ok := s.entries[id]
		if !ok {
			e = &entry{sess: Session{State: AwaitingType}, lastSeen: time.Now()}
			s.entries[id] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.gone {
			// Removed while we waited for the lock; start over.
			e.mu.Unlock()
			continue
		}
		e.lastSeen = time.Now()
		return &e.sess, !ok, func() { e.mu.Unlock() }
	}
}

// Remove destroys the reporter's session. The caller must hold the session
// via Acquire; the release func stays valid afterwards.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.gone = true
		delete(s.entries, id)
	}
}

// Reset puts the held session back to a fresh AwaitingType state,
// discarding any partially entered data.
func (s *Store) Reset(sess *Session) {
	*sess = Session{State: AwaitingType}
}

// Sweep drops sessions idle for longer than maxIdle. Sessions currently
// being processed are skipped; they were touched just now anyway.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			e.gone = true
			delete(s.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
