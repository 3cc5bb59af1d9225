package gate

import (
	"context"

	"github.com/goliatone/go-router"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AccessClaims in the given context
func WithClaimsContext(r context.Context, claims AccessClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AccessClaims from the standard context
func GetClaims(ctx context.Context) (AccessClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AccessClaims)
	return raw, ok
}

// GetRouterClaims extracts the AccessClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AccessClaims, bool) {
	if key == "" {
		key = "claims" // Default key used by the gate middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AccessClaims)
	return claims, ok
}

// ActiveRole returns the active role from context, empty when unauthenticated.
func ActiveRole(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok {
		return ""
	}
	return claims.ActiveRole()
}

// Can checks the status matrix for the caller in ctx. Missing claims deny.
func Can(ctx context.Context, matrix *AuthorizationMatrix, status, method string) bool {
	claims, ok := GetClaims(ctx)
	if !ok || matrix == nil {
		return false
	}
	return matrix.IsAllowed(claims.ActiveRole(), status, method)
}

// CanModify checks the ownership path for the caller in ctx.
func CanModify(ctx context.Context, matrix *AuthorizationMatrix, creatorID string) bool {
	claims, ok := GetClaims(ctx)
	if !ok || matrix == nil {
		return false
	}
	return matrix.CanModify(claims, creatorID)
}
