package memory

import (
	"context"
	"testing"
	"time"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, New())
}

func TestMemoryStore_EqualTimestamps(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Now()

	for _, topic := range []string{"first", "second"} {
		if _, err := store.Append(ctx, &domain.GenerationResult{
			Identity:  domain.Identity{UID: "u"},
			Topic:     topic,
			CreatedAt: now,
		}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := store.QueryByIdentity(ctx, "u", 0)
	if err != nil {
		t.Fatalf("QueryByIdentity() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Topic != "second" {
		t.Fatalf("entries = %+v, want second first", entries)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Append(ctx, &domain.GenerationResult{
		Identity: domain.Identity{UID: "u"},
		Topic:    "volcanoes",
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, _ := store.QueryByIdentity(ctx, "u", 10)
	entries[0].Topic = "mutated"

	again, _ := store.QueryByIdentity(ctx, "u", 10)
	if again[0].Topic != "volcanoes" {
		t.Errorf("Topic = %q, want volcanoes", again[0].Topic)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Append(ctx, &domain.GenerationResult{Identity: domain.Identity{UID: "u"}}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
