// Package memory provides a process-local history store for development and
// tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/storage"
)

// Store keeps history in memory. Entries are lost on restart.
type Store struct {
	mu     sync.RWMutex
	byUser map[string][]*domain.HistoryEntry
}

var _ storage.HistoryStore = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{byUser: make(map[string][]*domain.HistoryEntry)}
}

// Append stores a copy of res under a fresh id.
func (s *Store) Append(ctx context.Context, res *domain.GenerationResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := storage.NewRecordID()
	entry := domain.EntryFromResult(id, res)

	s.mu.Lock()
	s.byUser[res.Identity.UID] = append(s.byUser[res.Identity.UID], entry)
	s.mu.Unlock()

	return id, nil
}

// QueryByIdentity returns up to limit entries owned by uid, newest first.
// Entries with equal timestamps are returned in reverse insertion order.
func (s *Store) QueryByIdentity(ctx context.Context, uid string, limit int) ([]*domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = storage.ClampLimit(limit)

	s.mu.RLock()
	entries := slices.Clone(s.byUser[uid])
	s.mu.RUnlock()

	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b *domain.HistoryEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]*domain.HistoryEntry, len(entries))
	for i, e := range entries {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
