package ports

import (
	"context"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

// HistoryStore is the persistence gateway for completed results.
// It is append-only: the relay never updates or deletes a record.
type HistoryStore interface {
	// Append durably stores one completed result and returns its record id.
	Append(ctx context.Context, res *domain.GenerationResult) (string, error)

	// QueryByIdentity returns up to limit entries owned by uid, newest first.
	QueryByIdentity(ctx context.Context, uid string, limit int) ([]*domain.HistoryEntry, error)

	// Close closes the storage connection
	Close() error
}
