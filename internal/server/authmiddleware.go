package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/core/ports"
)

type identityKey struct{}

// AuthMiddleware verifies the bearer credential and injects the identity
// into the request context. A missing credential is answered with 401 and a
// rejected one with 403; in both cases next is never called.
func AuthMiddleware(verifier ports.IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, r, domain.ErrAuthentication("no token provided"))
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if !domain.IsType(err, domain.ErrorTypeAuthentication) && !domain.IsType(err, domain.ErrorTypePermission) {
					err = domain.ErrPermission("unauthorized").WithCause(err)
				}
				WriteError(w, r, err)
				return
			}

			AddLogField(r.Context(), "uid", identity.UID)
			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// WithIdentity returns a context carrying identity.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity retrieves the identity from context.
// Returns nil if no identity is set.
func GetIdentity(ctx context.Context) *domain.Identity {
	if id, ok := ctx.Value(identityKey{}).(*domain.Identity); ok {
		return id
	}
	return nil
}
