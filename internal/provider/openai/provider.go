// Package openai implements the provider interface for OpenAI and
// OpenAI-compatible chat completion APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/pkg/config"
	"github.com/tjfontaine/mindspark/internal/provider/registry"
)

// ProviderType is the provider type identifier used in configuration.
const ProviderType = "openai"

// ProviderTypeCompatible is the provider type for OpenAI-compatible APIs.
const ProviderTypeCompatible = "openai-compatible"

// DefaultModel is used when the config names none.
const DefaultModel = "gpt-4o-mini"

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.requestOpts = append(p.requestOpts, option.WithBaseURL(baseURL))
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.requestOpts = append(p.requestOpts, option.WithHTTPClient(httpClient))
	}
}

// WithModel overrides DefaultModel.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithName sets the name reported by Name.
func WithName(name string) ProviderOption {
	return func(p *Provider) {
		if name != "" {
			p.name = name
		}
	}
}

// Provider talks to a chat completions endpoint.
type Provider struct {
	client      openai.Client
	name        string
	model       string
	requestOpts []option.RequestOption
}

var _ ports.Provider = (*Provider)(nil)

// New creates an OpenAI provider. Calls are made once; the SDK's automatic
// retries are disabled.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		name:  ProviderType,
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	clientOpts = append(clientOpts, p.requestOpts...)

	p.client = openai.NewClient(clientOpts...)
	return p
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) params(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
}

// Complete returns the first choice's message content.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(prompt))
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream yields the content delta of each chunk's first choice.
func (p *Provider) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(prompt))
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("openai stream: %w", err))
		}
	}
}

// CreateFromConfig creates an OpenAI provider from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (ports.Provider, error) {
	opts := []ProviderOption{WithName(cfg.Name), WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return New(cfg.APIKey, opts...), nil
}

// ValidateConfig requires an API key for the hosted API. Compatible
// endpoints (local models) may run without one but need a base URL.
func ValidateConfig(cfg config.ProviderConfig) error {
	switch cfg.Type {
	case ProviderTypeCompatible:
		if cfg.BaseURL == "" {
			return errors.New("base_url is required for openai-compatible")
		}
	default:
		if cfg.APIKey == "" {
			return errors.New("api_key is required for openai")
		}
	}
	return nil
}

// RegisterProviderFactories registers the OpenAI and OpenAI-compatible
// provider factories.
func RegisterProviderFactories() {
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Description:    "OpenAI chat completions API",
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderTypeCompatible,
		Description:    "OpenAI-compatible chat completions API",
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}
