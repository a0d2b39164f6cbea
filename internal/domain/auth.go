package domain

import "time"

// IssuedCredential is what the credential-issuing service returns after a
// successful login or registration.
type IssuedCredential struct {
	Identity   *Identity
	Credential string
	ExpiresAt  time.Time
}

// Registration carries the fields needed to open a new member account.
type Registration struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	StudentNumber string `json:"student_number,omitempty"`
	Phone         string `json:"phone,omitempty"`
}
