// Package firestore stores history as documents in a Cloud Firestore
// collection.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/storage"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "history"

// Store is a HistoryStore backed by one Firestore collection. Querying needs
// a composite index on (uid ASC, createdAt DESC).
type Store struct {
	client     *firestore.Client
	collection string
	ownsClient bool
}

var _ ports.HistoryStore = (*Store)(nil)

type document struct {
	UID         string    `firestore:"uid"`
	Topic       string    `firestore:"topic"`
	Explanation string    `firestore:"explanation"`
	ImageURL    string    `firestore:"imageUrl"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

// New connects to the given project. FIRESTORE_EMULATOR_HOST is honoured by
// the client library.
func New(ctx context.Context, projectID, collection string) (*Store, error) {
	if projectID == "" {
		return nil, errors.New("firestore project_id is required")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	s := NewWithClient(client, collection)
	s.ownsClient = true
	return s, nil
}

// NewWithClient wraps an existing client. Close leaves the client open.
func NewWithClient(client *firestore.Client, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, collection: collection}
}

// Append writes one document keyed by a fresh record id.
func (s *Store) Append(ctx context.Context, res *domain.GenerationResult) (string, error) {
	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	id := storage.NewRecordID()
	doc := document{
		UID:         res.Identity.UID,
		Topic:       res.Topic,
		Explanation: res.FullText,
		ImageURL:    res.ArtifactReference,
		CreatedAt:   createdAt.UTC(),
	}
	if _, err := s.client.Collection(s.collection).Doc(id).Set(ctx, doc); err != nil {
		return "", fmt.Errorf("write history document: %w", err)
	}
	return id, nil
}

// QueryByIdentity returns up to limit documents owned by uid, newest first.
func (s *Store) QueryByIdentity(ctx context.Context, uid string, limit int) ([]*domain.HistoryEntry, error) {
	iter := s.client.Collection(s.collection).
		Where("uid", "==", uid).
		OrderBy("createdAt", firestore.Desc).
		Limit(storage.ClampLimit(limit)).
		Documents(ctx)
	defer iter.Stop()

	var entries []*domain.HistoryEntry
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query history: %w", err)
		}

		var doc document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode history document %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, &domain.HistoryEntry{
			ID:          snap.Ref.ID,
			Topic:       doc.Topic,
			Explanation: doc.Explanation,
			ImageURL:    doc.ImageURL,
			CreatedAt:   doc.CreatedAt,
		})
	}
	return entries, nil
}

// Close releases the client if this store created it.
func (s *Store) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}
