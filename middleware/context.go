package middleware

import (
	"context"
)

// Context key type to avoid collisions
type contextKey string

// identityKey is the context key for the request identity
const identityKey contextKey = "identity"

// Identity is the request-scoped identity established by the authentication
// gate from a validated token. It is immutable once placed in the context.
// Roles are resolved fresh from the user store at validation time, not read
// from the token.
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the identity holds the given canonical role
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity holds at least one of the roles
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if i.HasRole(r) {
			return true
		}
	}
	return false
}

// WithIdentity adds an identity to the context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the identity from context, or nil when the
// request is unauthenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	if val := ctx.Value(identityKey); val != nil {
		if identity, ok := val.(*Identity); ok {
			return identity
		}
	}
	return nil
}
