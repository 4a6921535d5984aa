package model

import "time"

// Role is the closed set of user kinds.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient:
		return true
	}
	return false
}

// User is the identity held by a session.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// Dispatch runs onAdmin or onClient depending on the role.
// Unknown roles are treated as client.
func (r Role) Dispatch(onAdmin, onClient func()) {
	switch r {
	case RoleAdmin:
		onAdmin()
	default:
		onClient()
	}
}
