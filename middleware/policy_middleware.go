package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/ngaland/user-service/utils"
	"go.uber.org/zap"
)

// Authorization outcomes. ErrUnauthenticated maps to 401 ("who are you"),
// ErrForbidden to 403 ("I know who you are, and no").
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
)

// RequirementKind enumerates the supported authorization rules
type RequirementKind int

const (
	// RequirePublic allows any request, authenticated or not
	RequirePublic RequirementKind = iota

	// RequireAuthenticated allows any authenticated identity
	RequireAuthenticated

	// RequireRoleIn allows identities holding at least one of the roles
	RequireRoleIn

	// RequireSelfOrRoleIn allows the resource owner, or identities holding
	// at least one of the roles
	RequireSelfOrRoleIn
)

// Requirement is the static authorization declaration attached to an
// operation at registration time.
type Requirement struct {
	Kind  RequirementKind
	Roles []string
}

// Public requires nothing
func Public() Requirement {
	return Requirement{Kind: RequirePublic}
}

// Authenticated requires any valid identity
func Authenticated() Requirement {
	return Requirement{Kind: RequireAuthenticated}
}

// RoleIn requires at least one of the given canonical roles
func RoleIn(roles ...string) Requirement {
	return Requirement{Kind: RequireRoleIn, Roles: roles}
}

// SelfOrRoleIn requires ownership of the target resource or at least one
// of the given canonical roles.
func SelfOrRoleIn(roles ...string) Requirement {
	return Requirement{Kind: RequireSelfOrRoleIn, Roles: roles}
}

// Authorize evaluates a requirement against the request identity.
// ownerSubject is the owning subject of the target resource and is only
// consulted for SelfOrRoleIn requirements. Returns nil when allowed,
// ErrUnauthenticated or ErrForbidden otherwise.
func Authorize(identity *Identity, req Requirement, ownerSubject string) error {
	if req.Kind == RequirePublic {
		return nil
	}
	if identity == nil {
		return ErrUnauthenticated
	}

	switch req.Kind {
	case RequireAuthenticated:
		return nil
	case RequireRoleIn:
		if identity.HasAnyRole(req.Roles...) {
			return nil
		}
		return ErrForbidden
	case RequireSelfOrRoleIn:
		if identity.HasAnyRole(req.Roles...) {
			return nil
		}
		if ownerSubject != "" && identity.Subject == ownerSubject {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// OwnerResolver resolves the owning subject of the resource targeted by a
// request. Ownership lives with the resource, not the policy, so this is a
// collaborator call (typically a user lookup by path id).
type OwnerResolver func(ctx context.Context, r *http.Request) (string, error)

// PolicyMiddleware enforces authorization requirements declared per route.
// It must run after AuthMiddleware.RequireAuth on protected routes.
type PolicyMiddleware struct {
	logger *zap.Logger
}

// NewPolicyMiddleware creates a new PolicyMiddleware
func NewPolicyMiddleware(logger *zap.Logger) *PolicyMiddleware {
	return &PolicyMiddleware{logger: logger}
}

// Require enforces a requirement that needs no ownership resolution
func (m *PolicyMiddleware) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if err := Authorize(identity, req, ""); err != nil {
				m.deny(w, r, identity, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOr enforces a SelfOrRoleIn requirement, resolving the owning
// subject through the given collaborator. Resolver failures are treated as
// the resource being absent: authorization falls through to the role check
// so that non-owners cannot probe for resource existence.
func (m *PolicyMiddleware) RequireOwnerOr(resolve OwnerResolver, roles ...string) func(http.Handler) http.Handler {
	req := SelfOrRoleIn(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				m.deny(w, r, identity, ErrUnauthenticated)
				return
			}

			owner := ""
			if !identity.HasAnyRole(roles...) {
				resolved, err := resolve(r.Context(), r)
				if err != nil {
					m.logger.Debug("owner resolution failed",
						zap.String("path", r.URL.Path),
						zap.Error(err))
				} else {
					owner = resolved
				}
			}

			if err := Authorize(identity, req, owner); err != nil {
				m.deny(w, r, identity, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *PolicyMiddleware) deny(w http.ResponseWriter, r *http.Request, identity *Identity, err error) {
	if errors.Is(err, ErrUnauthenticated) {
		m.logger.Warn("request not authenticated", zap.String("path", r.URL.Path))
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	subject := ""
	if identity != nil {
		subject = identity.Subject
	}
	m.logger.Warn("request forbidden",
		zap.String("path", r.URL.Path),
		zap.String("subject", subject))
	_ = utils.WriteForbidden(w, "You are not authorized to perform this operation")
}
