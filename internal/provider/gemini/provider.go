// Package gemini implements the provider interface on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"google.golang.org/genai"

	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/pkg/config"
	"github.com/tjfontaine/mindspark/internal/provider/registry"
)

// ProviderType is the provider type identifier used in configuration.
const ProviderType = "gemini"

// DefaultModel is used when the config names none.
const DefaultModel = "gemini-1.5-flash"

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
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

// Provider talks to the Gemini API.
type Provider struct {
	client     *genai.Client
	name       string
	model      string
	baseURL    string
	httpClient *http.Client
}

var _ ports.Provider = (*Provider)(nil)

// New creates a Gemini provider.
func New(ctx context.Context, apiKey string, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{
		name:  ProviderType,
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(p)
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *Provider) Name() string {
	return p.name
}

// Complete runs a single generateContent call and returns its text.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", errors.New("gemini generate: empty response")
	}
	return resp.Text(), nil
}

// Stream yields the text of each streamed response chunk.
func (p *Provider) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, genai.Text(prompt), nil) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if resp == nil {
				continue
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

// CreateFromConfig creates a Gemini provider from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (ports.Provider, error) {
	opts := []ProviderOption{WithName(cfg.Name), WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return New(context.Background(), cfg.APIKey, opts...)
}

// ValidateConfig requires an API key.
func ValidateConfig(cfg config.ProviderConfig) error {
	if cfg.APIKey == "" {
		return errors.New("api_key is required for gemini")
	}
	return nil
}

// Register registers the Gemini provider factory.
func Register() {
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Description:    "Google Gemini API provider",
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}
