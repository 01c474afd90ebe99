package generation

import (
	"context"
	"iter"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/core/ports"
)

// Explainer streams an explanation of a topic from a provider.
type Explainer struct {
	provider ports.Provider
	words    int
}

var _ ports.ChunkProducer = (*Explainer)(nil)

// NewExplainer creates an explainer asking for about words words. A
// non-positive value selects DefaultAnswerWords.
func NewExplainer(provider ports.Provider, words int) *Explainer {
	if words <= 0 {
		words = DefaultAnswerWords
	}
	return &Explainer{provider: provider, words: words}
}

// StreamAnswer yields provider deltas as fragments in arrival order. Empty
// deltas are dropped. The first provider error ends the sequence as an
// upstream_stream error. Nothing is read ahead of the consumer.
func (e *Explainer) StreamAnswer(ctx context.Context, topic string) iter.Seq2[domain.TextFragment, error] {
	return func(yield func(domain.TextFragment, error) bool) {
		for delta, err := range e.provider.Stream(ctx, AnswerPrompt(topic, e.words)) {
			if err != nil {
				yield("", domain.ErrUpstreamStream(err))
				return
			}
			if delta == "" {
				continue
			}
			if !yield(domain.TextFragment(delta), nil) {
				return
			}
		}
	}
}
