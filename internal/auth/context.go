// Package auth defines the authenticated caller context threaded
// through every lifecycle operation. Services receive the identity
// explicitly instead of re-fetching an ambient "current user", and
// enforce their own role checks regardless of what the transport layer
// already filtered.
package auth

import "github.com/magabrotheeeer/caixinha-api/internal/models"

// Context identifies the authenticated caller of one operation.
type Context struct {
	UserUID string
	Email   string
	Role    string
}

// IsAdmin reports whether the caller holds the admin role.
func (c Context) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// IsMember reports whether the caller is a regular member (cotista or
// não cotista). Admins are excluded from quotas, loans and raffles.
func (c Context) IsMember() bool {
	return c.Role == models.RoleCotista || c.Role == models.RoleNaoCotista
}
