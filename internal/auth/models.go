// Package auth verifies bearer tokens issued by the hosted identity provider.
package auth

import "strings"

// Role is the application role carried in a token's app metadata.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// ParseRole maps a claim value to a Role. Unknown or empty values are owners.
func ParseRole(v string) Role {
	if strings.EqualFold(strings.TrimSpace(v), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleOwner
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
