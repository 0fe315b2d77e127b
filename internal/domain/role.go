package domain

import "strings"

// Role enumerates the capability groups a principal can hold.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleTechnician Role = "technician"
	RoleLead       Role = "lead"
	RoleAdmin      Role = "admin"
)

// Roles lists every known role in ascending privilege order.
var Roles = []Role{RoleOperator, RoleTechnician, RoleLead, RoleAdmin}

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Roles {
		if role == known {
			return role, true
		}
	}
	return "", false
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   string
	Role Role
}
