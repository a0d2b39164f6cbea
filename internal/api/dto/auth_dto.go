package dto

import (
	"time"

	"github.com/spec-kit/library-gateway/internal/domain"
)

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries an issued credential.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionData is the data member of identity and issuance responses. Auth is
// only present on issuance.
type SessionData struct {
	User *domain.Identity `json:"user"`
	Auth *AuthResponse    `json:"auth,omitempty"`
}

// SessionResponse wraps SessionData in the standard envelope.
type SessionResponse struct {
	Data SessionData `json:"data"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the error envelope every failing route renders.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
