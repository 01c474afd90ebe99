package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tjfontaine/mindspark/internal/pkg/config"
)

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func newTestServer(t *testing.T, chunks []string, streamStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(textResponse("A photorealistic image of a volcano"))
		case strings.HasSuffix(r.URL.Path, ":streamGenerateContent"):
			if streamStatus != http.StatusOK {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(streamStatus)
				fmt.Fprint(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
				return
			}
			w.Header().Set("Content-Type", "text/event-stream")
			for _, c := range chunks {
				b, _ := json.Marshal(textResponse(c))
				fmt.Fprintf(w, "data: %s\n\n", b)
				w.(http.Flusher).Flush()
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	p, err := New(context.Background(), "test-key",
		WithBaseURL(srv.URL+"/"),
		WithHTTPClient(srv.Client()),
		WithName("main"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestProvider_Complete(t *testing.T) {
	srv := newTestServer(t, nil, http.StatusOK)
	defer srv.Close()

	p := newTestProvider(t, srv)
	got, err := p.Complete(context.Background(), "describe volcanoes")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "A photorealistic image of a volcano" {
		t.Errorf("Complete() = %q", got)
	}
	if p.Name() != "main" {
		t.Errorf("Name() = %q, want main", p.Name())
	}
}

func TestProvider_Stream(t *testing.T) {
	srv := newTestServer(t, []string{"Volcanoes ", "are ", "openings."}, http.StatusOK)
	defer srv.Close()

	p := newTestProvider(t, srv)
	var got []string
	for delta, err := range p.Stream(context.Background(), "explain volcanoes") {
		if err != nil {
			t.Fatalf("Stream() error = %v", err)
		}
		got = append(got, delta)
	}
	if strings.Join(got, "") != "Volcanoes are openings." {
		t.Errorf("stream = %q", got)
	}
}

func TestProvider_StreamError(t *testing.T) {
	srv := newTestServer(t, nil, http.StatusInternalServerError)
	defer srv.Close()

	p := newTestProvider(t, srv)
	var gotErr error
	for _, err := range p.Stream(context.Background(), "explain volcanoes") {
		if err != nil {
			gotErr = err
			break
		}
	}
	if gotErr == nil {
		t.Fatal("expected stream error")
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(config.ProviderConfig{}); err == nil {
		t.Error("expected error without api key")
	}
	if err := ValidateConfig(config.ProviderConfig{APIKey: "k"}); err != nil {
		t.Errorf("ValidateConfig() error = %v", err)
	}
}
