// Package storagetest is a behaviour suite every HistoryStore backend runs.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/core/ports"
)

// Run exercises append and query semantics against store. The store must be
// empty when Run starts.
func Run(t *testing.T, store ports.HistoryStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	alice := domain.Identity{UID: "alice"}
	bob := domain.Identity{UID: "bob"}

	ids := make(map[string]bool)
	for i := range 12 {
		id, err := store.Append(ctx, &domain.GenerationResult{
			Identity:          alice,
			Topic:             fmt.Sprintf("topic-%02d", i),
			FullText:          fmt.Sprintf("text %d", i),
			ArtifactReference: fmt.Sprintf("https://img.test/%d", i),
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if id == "" {
			t.Fatal("Append() returned empty id")
		}
		if ids[id] {
			t.Fatalf("Append() returned duplicate id %q", id)
		}
		ids[id] = true
	}
	if _, err := store.Append(ctx, &domain.GenerationResult{
		Identity:  bob,
		Topic:     "bob's topic",
		FullText:  "bob's text",
		CreatedAt: base.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	t.Run("newest first with limit", func(t *testing.T) {
		entries, err := store.QueryByIdentity(ctx, "alice", 10)
		if err != nil {
			t.Fatalf("QueryByIdentity() error = %v", err)
		}
		if len(entries) != 10 {
			t.Fatalf("len(entries) = %d, want 10", len(entries))
		}
		if entries[0].Topic != "topic-11" {
			t.Errorf("entries[0].Topic = %q, want topic-11", entries[0].Topic)
		}
		if entries[9].Topic != "topic-02" {
			t.Errorf("entries[9].Topic = %q, want topic-02", entries[9].Topic)
		}
		for i := 1; i < len(entries); i++ {
			if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
				t.Fatalf("entries not ordered newest first at %d", i)
			}
		}
		first := entries[0]
		if first.Explanation != "text 11" || first.ImageURL != "https://img.test/11" {
			t.Errorf("entry fields = %+v", first)
		}
		if !first.CreatedAt.Equal(base.Add(11 * time.Minute)) {
			t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, base.Add(11*time.Minute))
		}
		if !ids[first.ID] {
			t.Errorf("ID %q was not returned by Append", first.ID)
		}
	})

	t.Run("scoped to identity", func(t *testing.T) {
		entries, err := store.QueryByIdentity(ctx, "bob", 10)
		if err != nil {
			t.Fatalf("QueryByIdentity() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Topic != "bob's topic" {
			t.Fatalf("entries = %+v, want bob's single entry", entries)
		}
	})

	t.Run("unknown identity", func(t *testing.T) {
		entries, err := store.QueryByIdentity(ctx, "carol", 10)
		if err != nil {
			t.Fatalf("QueryByIdentity() error = %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("len(entries) = %d, want 0", len(entries))
		}
	})
}
