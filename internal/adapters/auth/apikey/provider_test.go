package apikey

import (
	"context"
	"testing"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/pkg/config"
)

func testConfig(tokens map[string]string) *config.Config {
	cfg := &config.Config{}
	for uid, token := range tokens {
		cfg.Identities = append(cfg.Identities, config.IdentityConfig{
			UID:       uid,
			Name:      "user " + uid,
			TokenHash: HashToken(token),
		})
	}
	return cfg
}

func TestProvider_Verify(t *testing.T) {
	p, err := NewProvider(testConfig(map[string]string{"alice": "tok-a", "bob": "tok-b"}))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantUID string
		wantErr domain.ErrorType
	}{
		{name: "alice", token: "tok-a", wantUID: "alice"},
		{name: "bob", token: "tok-b", wantUID: "bob"},
		{name: "empty token", token: "", wantErr: domain.ErrorTypeAuthentication},
		{name: "unknown token", token: "nope", wantErr: domain.ErrorTypePermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := p.Verify(context.Background(), tt.token)
			if tt.wantErr != "" {
				if !domain.IsType(err, tt.wantErr) {
					t.Fatalf("Verify() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if id.UID != tt.wantUID {
				t.Errorf("UID = %q, want %q", id.UID, tt.wantUID)
			}
		})
	}
}

func TestProvider_Reload(t *testing.T) {
	p, err := NewProvider(testConfig(map[string]string{"alice": "tok-a"}))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if err := p.ReloadFromConfig(testConfig(map[string]string{"carol": "tok-c"})); err != nil {
		t.Fatalf("ReloadFromConfig() error = %v", err)
	}

	if _, err := p.Verify(context.Background(), "tok-a"); err == nil {
		t.Error("expected old token to be rejected after reload")
	}
	id, err := p.Verify(context.Background(), "tok-c")
	if err != nil || id.UID != "carol" {
		t.Errorf("Verify() = %v, %v; want carol", id, err)
	}
}

func TestProvider_InvalidConfig(t *testing.T) {
	cfg := &config.Config{Identities: []config.IdentityConfig{{UID: "x"}}}
	if _, err := NewProvider(cfg); err == nil {
		t.Fatal("expected error for identity without token hash")
	}
	if _, err := NewProvider(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestHashToken(t *testing.T) {
	// echo -n "test" | sha256sum
	const want = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	if got := HashToken("test"); got != want {
		t.Errorf("HashToken() = %s, want %s", got, want)
	}
}
