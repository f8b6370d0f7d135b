package enums

import "fmt"

// Role is the login role of a user inside a business.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleStorekeeper Role = "storekeeper"
	RoleSuperadmin  Role = "superadmin"
)

var validRoles = []Role{
	RoleAdmin,
	RoleManager,
	RoleStorekeeper,
	RoleSuperadmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// BranchRestricted reports whether the role is confined to a single branch.
func (r Role) BranchRestricted() bool {
	return r == RoleManager || r == RoleStorekeeper
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// IsOneOf reports whether r matches any of roles.
func (r Role) IsOneOf(roles ...Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}
