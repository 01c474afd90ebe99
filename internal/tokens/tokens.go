// Package tokens counts completion tokens for relay accounting.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens in a piece of text.
type Counter interface {
	Count(text string) int
	// Estimated reports whether counts are approximate.
	Estimated() bool
}

// ForModel returns a tiktoken counter for OpenAI model names and the
// character estimator for everything else.
func ForModel(model string) Counter {
	if openAIModels.Matches(strings.ToLower(model)) {
		c, err := NewTiktokenCounter(modelToEncoding(model))
		if err == nil {
			return c
		}
	}
	return NewEstimator()
}

// Estimator approximates token counts from text length. It is the fallback
// for providers without a local tokenizer.
type Estimator struct {
	// CharsPerToken is the average characters per token (default: 4)
	CharsPerToken float64
}

// NewEstimator creates a new token estimator.
func NewEstimator() *Estimator {
	return &Estimator{CharsPerToken: 4.0}
}

func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	n := int(float64(len(text))/e.CharsPerToken + 0.5)
	return max(n, 1)
}

func (e *Estimator) Estimated() bool { return true }

// TiktokenCounter counts with a tiktoken encoding.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

var (
	codecMu    sync.Mutex
	codecCache = make(map[tokenizer.Encoding]tokenizer.Codec)
)

// NewTiktokenCounter loads (or reuses) the codec for encoding.
func NewTiktokenCounter(encoding tokenizer.Encoding) (*TiktokenCounter, error) {
	codecMu.Lock()
	defer codecMu.Unlock()

	if codec, ok := codecCache[encoding]; ok {
		return &TiktokenCounter{codec: codec}, nil
	}
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	codecCache[encoding] = codec
	return &TiktokenCounter{codec: codec}, nil
}

// Count returns the number of tokens, or 0 if text cannot be encoded.
func (c *TiktokenCounter) Count(text string) int {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0
	}
	return len(ids)
}

func (c *TiktokenCounter) Estimated() bool { return false }

// ModelMatcher helps match model names to provider patterns.
type ModelMatcher struct {
	prefixes []string
	exact    []string
}

// NewModelMatcher creates a new model matcher.
func NewModelMatcher(prefixes, exact []string) *ModelMatcher {
	return &ModelMatcher{
		prefixes: prefixes,
		exact:    exact,
	}
}

// Matches returns true if the model matches any pattern.
func (m *ModelMatcher) Matches(model string) bool {
	for _, e := range m.exact {
		if model == e {
			return true
		}
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

var openAIModels = NewModelMatcher(
	[]string{"gpt-", "o1", "o3", "o4", "text-embedding", "text-davinci"},
	[]string{"davinci", "curie", "babbage", "ada"},
)

// modelToEncoding maps model names to tiktoken encodings.
//
// Encoding reference:
// - O200kBase: GPT-4o, GPT-4.1, GPT-5, o-series
// - Cl100kBase: GPT-4, GPT-3.5-turbo, text-embedding
// - P50kBase: text-davinci-003, text-davinci-002
// - R50kBase: davinci, curie, babbage, ada (legacy)
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5"),
		strings.HasPrefix(model, "text-embedding"):
		return tokenizer.Cl100kBase
	case strings.HasPrefix(model, "text-davinci"):
		return tokenizer.P50kBase
	case model == "davinci" || model == "curie" || model == "babbage" || model == "ada":
		return tokenizer.R50kBase
	default:
		return tokenizer.O200kBase
	}
}
