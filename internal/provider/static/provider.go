// Package static provides a scripted provider for local runs and demos. It
// never leaves the process.
package static

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/pkg/config"
	"github.com/tjfontaine/mindspark/internal/provider/registry"
)

// ProviderType is the provider type identifier used in configuration.
const ProviderType = "static"

// Provider replays a fixed description and fragment script.
type Provider struct {
	name        string
	description string
	fragments   []string
	delay       time.Duration
}

var _ ports.Provider = (*Provider)(nil)

// Option configures the provider.
type Option func(*Provider)

// WithDelay pauses between fragments.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) {
		p.delay = d
	}
}

// New creates a static provider.
func New(name, description string, fragments []string, opts ...Option) *Provider {
	p := &Provider{
		name:        name,
		description: description,
		fragments:   fragments,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return p.name
}

// Complete returns the scripted description regardless of the prompt.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.description, nil
}

// Stream yields the scripted fragments in order.
func (p *Provider) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for i, frag := range p.fragments {
			if i > 0 && p.delay > 0 {
				select {
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				case <-time.After(p.delay):
				}
			}
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(frag, nil) {
				return
			}
		}
	}
}

// CreateFromConfig creates a static provider from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (ports.Provider, error) {
	return New(cfg.Name, cfg.Description, cfg.Fragments), nil
}

// ValidateConfig requires at least one fragment.
func ValidateConfig(cfg config.ProviderConfig) error {
	if len(cfg.Fragments) == 0 {
		return errors.New("static provider needs at least one fragment")
	}
	return nil
}

// Register registers the static provider factory.
func Register() {
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Description:    "Scripted provider for local development",
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}
