package auth

import (
	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// Resource names a collection whose listing may be scoped to its owner.
type Resource string

const (
	ResourceInvoices         Resource = "invoices"
	ResourceFunds            Resource = "funds"
	ResourceAdoptionRequests Resource = "adoption_requests"
	ResourceUsers            Resource = "users"
)

// staff roles allowed to see every row of a resource besides admin.
var viewAllGrants = map[Resource][]enums.UserRole{
	ResourceInvoices:         {enums.UserRoleSalesAdmin},
	ResourceAdoptionRequests: {enums.UserRoleAdoptedAdmin},
}

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == enums.UserRoleAdmin
}

// CanViewAll reports whether list operations on resource may skip owner scoping.
func (p Principal) CanViewAll(resource Resource) bool {
	if p.IsAdmin() {
		return true
	}
	for _, role := range viewAllGrants[resource] {
		if role == p.Role {
			return true
		}
	}
	return false
}

// Owns reports whether the principal may act on a row owned by ownerID.
func (p Principal) Owns(ownerID uuid.UUID) bool {
	return p.UserID != uuid.Nil && p.UserID == ownerID
}
