package domain

import "time"

// Role is the coarse authorisation level carried by every user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID              string
	Name            string
	Email           string // unique, compared as stored
	PasswordHash    string // bcrypt
	Role            Role
	ProfileImageURL *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
