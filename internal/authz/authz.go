// Package authz decides allow/deny for an authenticated identity against a
// declared policy. Evaluation is pure: no storage, no clock, no side effects.
package authz

import (
	"errors"
	"strings"

	"bodyshop/internal/auth"
)

var (
	// ErrUnauthorized means no identity was presented. Authorization must
	// never run before authentication; if it does, we fail closed.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the identity is authenticated but not permitted.
	ErrForbidden = errors.New("insufficient permissions")
)

// The closed set of role tags carried in tokens and the users.role column.
const (
	RoleClient = "client"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// KnownRole reports whether role is one of the closed set.
func KnownRole(role string) bool {
	switch role {
	case RoleClient, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Policy declares who may perform an operation.
type Policy struct {
	// Roles is the set of allowed role tags. Empty means any authenticated
	// user.
	Roles []string
	// AllowEmails is the admin email allowlist, a parallel authority kept for
	// the settings surface. When set, membership grants access in addition to
	// the role check, never instead of it.
	AllowEmails []string
}

// AnyAuthenticated permits every authenticated identity.
func AnyAuthenticated() Policy {
	return Policy{}
}

// Roles permits the given role tags.
func Roles(roles ...string) Policy {
	return Policy{Roles: roles}
}

// AdminAllowlist permits the admin role or exact membership in the email
// allowlist.
func AdminAllowlist(emails []string) Policy {
	return Policy{Roles: []string{RoleAdmin}, AllowEmails: emails}
}

// Authorize returns nil when identity may perform the operation declared by
// the policy.
func Authorize(identity *auth.Identity, p Policy) error {
	if identity == nil {
		return ErrUnauthorized
	}

	if len(p.Roles) == 0 && len(p.AllowEmails) == 0 {
		return nil
	}

	for _, role := range p.Roles {
		if identity.Role == role {
			return nil
		}
	}

	for _, email := range p.AllowEmails {
		if identity.Email != "" && strings.EqualFold(identity.Email, email) {
			return nil
		}
	}

	return ErrForbidden
}

// AuthorizeOwner allows the action when identity owns the resource, falling
// back to the blanket policy otherwise. Whether the resource is in a state
// that permits the action remains the caller's check.
func AuthorizeOwner(identity *auth.Identity, ownerID int64, fallback Policy) error {
	if identity == nil {
		return ErrUnauthorized
	}
	if identity.UserID == ownerID {
		return nil
	}
	return Authorize(identity, fallback)
}
