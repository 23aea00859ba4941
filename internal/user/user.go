package user

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the authorization roles a user may hold.
type Role string

const (
	// RoleAdmin grants unrestricted access to every bill.
	RoleAdmin Role = "admin"
	// RoleMember restricts access to bills the user owns.
	RoleMember Role = "member"
)

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User represents a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
