package enums

import "fmt"

// ActorRole identifies who is acting on an invoice.
type ActorRole string

const (
	ActorRoleVendor         ActorRole = "vendor"
	ActorRoleFranchiseAdmin ActorRole = "franchise_admin"
	ActorRoleStandardAdmin  ActorRole = "standard_admin"
	ActorRoleOwner          ActorRole = "owner"
	ActorRoleSuperAdmin     ActorRole = "super_admin"
)

var validActorRoles = []ActorRole{
	ActorRoleVendor,
	ActorRoleFranchiseAdmin,
	ActorRoleStandardAdmin,
	ActorRoleOwner,
	ActorRoleSuperAdmin,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into a ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}

// IsAdmin reports whether the role edits invoices on behalf of a franchise.
func (a ActorRole) IsAdmin() bool {
	return a == ActorRoleFranchiseAdmin || a == ActorRoleStandardAdmin
}
