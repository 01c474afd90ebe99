// Package generation turns a topic into the relay's two upstream products:
// the image reference sent ahead of the body and the streamed explanation.
package generation

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/core/ports"
)

// DefaultImageBaseURL renders an image from a prompt placed in the path.
const DefaultImageBaseURL = "https://image.pollinations.ai/prompt/"

// ImageResolver asks a provider for an image description and turns it into
// an image URL.
type ImageResolver struct {
	provider ports.Provider
	baseURL  string
	logger   *slog.Logger
}

var _ ports.MetadataResolver = (*ImageResolver)(nil)

// ImageOption configures an ImageResolver.
type ImageOption func(*ImageResolver)

// WithImageBaseURL overrides DefaultImageBaseURL.
func WithImageBaseURL(base string) ImageOption {
	return func(r *ImageResolver) {
		if base != "" {
			r.baseURL = base
		}
	}
}

// WithImageLogger sets the logger.
func WithImageLogger(logger *slog.Logger) ImageOption {
	return func(r *ImageResolver) {
		r.logger = logger
	}
}

// NewImageResolver creates a resolver backed by provider.
func NewImageResolver(provider ports.Provider, opts ...ImageOption) *ImageResolver {
	r := &ImageResolver{
		provider: provider,
		baseURL:  DefaultImageBaseURL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if !strings.HasSuffix(r.baseURL, "/") {
		r.baseURL += "/"
	}
	return r
}

// Describe makes exactly one provider call. Any failure, including an empty
// description, is an upstream_metadata error.
func (r *ImageResolver) Describe(ctx context.Context, topic string) (domain.AuxiliaryMetadata, error) {
	raw, err := r.provider.Complete(ctx, ImagePrompt(topic))
	if err != nil {
		return domain.AuxiliaryMetadata{}, domain.ErrUpstreamMetadata(err)
	}

	desc := cleanDescription(raw)
	if desc == "" {
		return domain.AuxiliaryMetadata{}, domain.ErrUpstreamMetadata(errors.New("empty image description"))
	}

	ref := r.baseURL + url.PathEscape(desc)
	r.logger.Debug("resolved image",
		slog.String("provider", r.provider.Name()),
		slog.String("image_url", ref),
	)
	return domain.AuxiliaryMetadata{ArtifactReference: ref}, nil
}

func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}
