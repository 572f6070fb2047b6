// Package ledger keeps the ordered, append-only list of records generated
// during one session.
package ledger

import (
	"sync"

	"badgeforge/models"
)

type Ledger struct {
	mu      sync.RWMutex
	entries []models.LedgerEntry
}

func New() *Ledger {
	return &Ledger{}
}

// Append adds e after every entry appended before it.
func (l *Ledger) Append(e models.LedgerEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Snapshot returns the entries in append order. It is never nil, so an empty
// ledger encodes as an empty list.
func (l *Ledger) Snapshot() []models.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
