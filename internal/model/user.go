package model

import "time"

// Role is the account role stored on a user row.
type Role string

const (
	RoleAttendee  Role = "ATTENDEE"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAttendee, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int        `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// Organizer is the trimmed projection for the public organizer listing.
type Organizer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Role     Role    `json:"role"`
	Phone    *string `json:"phone"`
}

// UpdateProfileRequest carries partial profile updates; absent fields keep
// their stored values.
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	Phone    *string `json:"phone"`
}

// UpdateUserParams is the repository-level update set. PasswordHash is
// already hashed by the service.
type UpdateUserParams struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Phone        *string
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed token plus the user display fields the
// frontend keeps in session.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
