package enums

import "fmt"

// UserRole describes the allowed values for the users.role column.
type UserRole string

const (
	UserRoleAdmin        UserRole = "admin"
	UserRoleSalesManager UserRole = "sales_manager"
	UserRoleSalesRep     UserRole = "sales_rep"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleSalesManager,
	UserRoleSalesRep,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value matches the canonical user role enum.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts the raw string to UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
