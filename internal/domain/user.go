package domain

import "time"

// User is an account that can act on requests.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal returns the request-scoped identity for the user.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role}
}

// Assignable reports whether requests may be assigned to the user.
func (u *User) Assignable() bool {
	return u.Active && u.Role == RoleTechnician
}
