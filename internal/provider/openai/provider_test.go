package openai

import (
	"context"
	"strings"
	"testing"

	"github.com/tjfontaine/mindspark/internal/pkg/config"
	"github.com/tjfontaine/mindspark/internal/testutil"
)

func newVCRProvider(t *testing.T, cassette string) *Provider {
	t.Helper()
	httpClient, apiKey := testutil.ReplayClient(t, cassette, "OPENAI_API_KEY")
	return New(apiKey, WithHTTPClient(httpClient))
}

func TestProvider_Complete(t *testing.T) {
	p := newVCRProvider(t, "openai_complete")

	got, err := p.Complete(context.Background(), "Describe volcanoes as an image prompt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.Contains(got, "volcano") {
		t.Errorf("Complete() = %q, want mention of volcano", got)
	}
}

func TestProvider_Stream(t *testing.T) {
	p := newVCRProvider(t, "openai_stream")

	var parts []string
	for delta, err := range p.Stream(context.Background(), "Explain volcanoes") {
		if err != nil {
			t.Fatalf("Stream() error = %v", err)
		}
		parts = append(parts, delta)
	}

	if got := strings.Join(parts, ""); got != "Volcanoes are openings in Earth's crust." {
		t.Errorf("stream = %q", got)
	}
	if len(parts) < 2 {
		t.Errorf("expected several deltas, got %d", len(parts))
	}
}

func TestProvider_Error(t *testing.T) {
	p := newVCRProvider(t, "openai_error")

	if _, err := p.Complete(context.Background(), "Hello"); err == nil {
		t.Error("Expected error for rejected key")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ProviderConfig
		wantErr bool
	}{
		{"openai with key", config.ProviderConfig{Type: ProviderType, APIKey: "k"}, false},
		{"openai without key", config.ProviderConfig{Type: ProviderType}, true},
		{"compatible with base url", config.ProviderConfig{Type: ProviderTypeCompatible, BaseURL: "http://localhost:11434/v1/"}, false},
		{"compatible without base url", config.ProviderConfig{Type: ProviderTypeCompatible}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
