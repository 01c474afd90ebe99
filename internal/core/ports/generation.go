package ports

import (
	"context"
	"iter"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

// Provider is a generative text backend.
type Provider interface {
	Name() string

	// Complete handles unary requests (non-streaming)
	Complete(ctx context.Context, prompt string) (string, error)

	// Stream yields text deltas in order. An error ends the sequence.
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// MetadataResolver resolves the auxiliary artifact for a topic.
type MetadataResolver interface {
	Describe(ctx context.Context, topic string) (domain.AuxiliaryMetadata, error)
}

// ChunkProducer produces the answer for a topic as a lazy fragment sequence.
// The sequence is pull-driven by the caller and cannot be resumed.
type ChunkProducer interface {
	StreamAnswer(ctx context.Context, topic string) iter.Seq2[domain.TextFragment, error]
}
