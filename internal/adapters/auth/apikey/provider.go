// Package apikey verifies bearer tokens against hashed tokens from config.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/pkg/config"
)

// Provider implements ports.IdentityVerifier using hashed bearer tokens.
type Provider struct {
	mu         sync.RWMutex
	identities map[string]*domain.Identity // keyHash -> identity
}

// Ensure Provider implements ports.IdentityVerifier at compile time.
var _ ports.IdentityVerifier = (*Provider)(nil)

// NewProvider creates a verifier from the identities in cfg.
func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	p := &Provider{}
	if err := p.ReloadFromConfig(cfg); err != nil {
		return nil, fmt.Errorf("load identities: %w", err)
	}
	return p, nil
}

// Verify validates a bearer token and returns the identity it belongs to.
func (p *Provider) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrAuthentication("no token provided")
	}

	keyHash := HashToken(token)

	p.mu.RLock()
	defer p.mu.RUnlock()

	for hash, id := range p.identities {
		// Constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(keyHash), []byte(hash)) == 1 {
			identity := *id
			return &identity, nil
		}
	}

	return nil, domain.ErrPermission("invalid token")
}

// ReloadFromConfig replaces the identity table.
// This is called by the runtime when config changes.
func (p *Provider) ReloadFromConfig(cfg *config.Config) error {
	identities := make(map[string]*domain.Identity, len(cfg.Identities))
	for _, ic := range cfg.Identities {
		if ic.UID == "" {
			return fmt.Errorf("identity with token hash %q has no uid", ic.TokenHash)
		}
		if ic.TokenHash == "" {
			return fmt.Errorf("identity %q has no token_hash", ic.UID)
		}
		identities[ic.TokenHash] = &domain.Identity{UID: ic.UID, Name: ic.Name}
	}

	p.mu.Lock()
	p.identities = identities
	p.mu.Unlock()

	return nil
}

// HashToken creates a SHA-256 hash of a bearer token for storage.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
