package auth

import (
	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/entities"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   uint
	Role string
}

// IsAdmin reports whether p holds the admin role. A nil principal is not an
// admin.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == entities.RoleAdmin
}

// RequireAuthenticated denies anonymous callers.
func RequireAuthenticated(p *Principal) error {
	if p == nil {
		return apperror.Auth("authentication required")
	}
	return nil
}

// RequireAdmin denies anonymous callers and callers without the admin role.
func RequireAdmin(p *Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return apperror.Forbidden("admin access required")
	}
	return nil
}

// RequireSelfOrAdmin allows admins, and otherwise only the owner of the
// resource.
func RequireSelfOrAdmin(p *Principal, ownerID uint) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() || p.ID == ownerID {
		return nil
	}
	return apperror.Forbidden("access denied")
}
