package domain

import "time"

// Role enumerates the roles a credential may carry.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// HomePath returns the landing route for the role. Anything that is not
// ADMIN lands on the student area.
func (r Role) HomePath() string {
	if r == RoleAdmin {
		return "/admin"
	}
	return "/siswa"
}

// UserStatus represents lifecycle states for a library member.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the stored library member record.
type User struct {
	ID            string
	Name          string
	Email         string
	Role          Role
	StudentNumber *string
	Phone         *string
	Status        UserStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Identity is the verified view of a user handed to clients.
type Identity struct {
	ID            string  `json:"id" yaml:"id"`
	Email         string  `json:"email" yaml:"email"`
	Name          string  `json:"name" yaml:"name"`
	Role          Role    `json:"role" yaml:"role"`
	StudentNumber *string `json:"student_number,omitempty" yaml:"student_number,omitempty"`
	Phone         *string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Identity projects the stored record onto its client-facing shape.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		StudentNumber: u.StudentNumber,
		Phone:         u.Phone,
	}
}
