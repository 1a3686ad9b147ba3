package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// OwnerContextKey is the context key for the resolved ledger owner
	OwnerContextKey ContextKey = "owner"

	// PrincipalContextKey is the context key for the authenticated principal
	PrincipalContextKey ContextKey = "principal"

	// OwnerHeader carries the owner id when authentication is disabled.
	OwnerHeader = "X-Owner-ID"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware resolves the ledger owner from a verified bearer token.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			principal := claims.Principal()
			ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
			ctx = WithOwner(ctx, principal.OwnerID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HeaderOwner trusts the X-Owner-ID header. It is meant for development setups
// where authentication is disabled.
func HeaderOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			unauthorized(w, "missing "+OwnerHeader+" header")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}

// ownerSlotKey carries a slot that outer middleware reads after the handler returns.
const ownerSlotKey ContextKey = "owner_slot"

// WithOwner stores the ledger owner in ctx.
func WithOwner(ctx context.Context, owner string) context.Context {
	if slot, ok := ctx.Value(ownerSlotKey).(*string); ok {
		*slot = owner
	}
	return context.WithValue(ctx, OwnerContextKey, owner)
}

// OwnerFromContext returns the ledger owner resolved for the request.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(OwnerContextKey).(string)
	return owner, ok && owner != ""
}

// PrincipalFromContext returns the authenticated principal, if a token was verified.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(domain.Principal)
	return p, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
