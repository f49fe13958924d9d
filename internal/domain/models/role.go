// internal/domain/models/role.go
package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of member roles.
type Role string

const (
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Roles lists every valid role in ascending privilege order.
var Roles = []Role{RoleMember, RoleAdmin, RoleSuperAdmin}

// ParseRole converts a stored or submitted role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
