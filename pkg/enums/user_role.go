package enums

import "fmt"

// UserRole is the platform-wide role carried in access tokens.
type UserRole string

const (
	UserRoleUser         UserRole = "user"
	UserRoleAdmin        UserRole = "admin"
	UserRoleSalesAdmin   UserRole = "sales-admin"
	UserRoleAdoptedAdmin UserRole = "adopted-admin"
	UserRoleSponsor      UserRole = "sponsor"
)

var validUserRoles = []UserRole{
	UserRoleUser,
	UserRoleAdmin,
	UserRoleSalesAdmin,
	UserRoleAdoptedAdmin,
	UserRoleSponsor,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// IsAdministrative reports whether the role belongs to back-office staff.
func (u UserRole) IsAdministrative() bool {
	switch u {
	case UserRoleAdmin, UserRoleSalesAdmin, UserRoleAdoptedAdmin:
		return true
	default:
		return false
	}
}
