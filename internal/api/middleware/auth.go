package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/edvin/recurpay/internal/api/response"
	"github.com/edvin/recurpay/internal/core"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller resolved from the API key.
type Identity struct {
	APIKeyID string
	Identity string
}

// Auth returns a middleware that validates the X-API-Key header against the
// api_keys table and attaches the key's identity to the request context.
func Auth(db core.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			hash := sha256.Sum256([]byte(key))
			keyHash := hex.EncodeToString(hash[:])

			var identity Identity
			err := db.QueryRow(r.Context(),
				`SELECT id, identity FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`, keyHash,
			).Scan(&identity.APIKeyID, &identity.Identity)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), &identity)))
		})
	}
}

// WithIdentity attaches an authenticated identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the authenticated identity, or nil when the request
// was not authenticated.
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}
