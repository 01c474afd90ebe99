package ports

import (
	"context"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/pkg/config"
)

// ConfigProvider loads and manages configuration.
// Implementations: file-based (default).
type ConfigProvider interface {
	Load(ctx context.Context) (*config.Config, error)
	Watch(ctx context.Context, onChange func(*config.Config)) error
	Close() error
}

// IdentityVerifier turns a bearer credential into an identity.
// Implementations: hashed bearer tokens from config (default).
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}
