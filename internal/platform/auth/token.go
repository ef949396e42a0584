package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/stayline-supplies/api/internal/platform/httpx"
)

type contextKey string

const identityKey contextKey = "github.com/stayline-supplies/api/internal/platform/auth/identity"

// RoleAdmin is the only role this API distinguishes. The storefront is
// anonymous; the admin console authenticates with a bearer token.
const RoleAdmin = "admin"

// Identity describes the authenticated caller.
type Identity struct {
	Role string
}

// WithIdentity stores the identity on the context. Exposed for tests.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the caller identity when authentication ran.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// TokenAuthenticator checks requests against a server-side API token. This
// replaces the client-side session flag the old console used: the secret
// lives on the server and comparison is constant time.
type TokenAuthenticator struct {
	digest [32]byte
}

// NewTokenAuthenticator constructs an authenticator for the given token.
func NewTokenAuthenticator(token string) (*TokenAuthenticator, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("auth: admin token is required")
	}
	return &TokenAuthenticator{digest: sha256.Sum256([]byte(token))}, nil
}

// RequireAdmin rejects requests lacking a valid bearer token.
func (a *TokenAuthenticator) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "bearer token required", http.StatusUnauthorized))
				return
			}
			digest := sha256.Sum256([]byte(token))
			if subtle.ConstantTimeCompare(digest[:], a.digest[:]) != 1 {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "invalid token", http.StatusUnauthorized))
				return
			}
			ctx := WithIdentity(r.Context(), Identity{Role: RoleAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
