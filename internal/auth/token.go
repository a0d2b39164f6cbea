package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/library-gateway/internal/domain"
	apperrors "github.com/spec-kit/library-gateway/pkg/util"
)

// ErrInvalidCredential covers malformed, tampered, wrongly signed and expired
// credentials alike.
var ErrInvalidCredential = errors.New("invalid credential")

// Claims describes the credential payload the gateway cares about.
type Claims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 credentials against a pre-provisioned secret.
// It never issues tokens and performs no I/O, so one instance is shared by
// every request.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier builds a verifier. An empty secret is a configuration
// error, never a verifier that rejects everything.
func NewTokenVerifier(secret string, leeway time.Duration) (*TokenVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, apperrors.NewConfigurationError("credential signing secret is not configured")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if leeway > 0 {
		options = append(options, jwt.WithLeeway(leeway))
	}

	return &TokenVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(options...),
	}, nil
}

// Verify validates the credential and returns its claims.
func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidCredential)
	}

	parsed, err := v.parser.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidCredential)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidCredential, claims.Role)
	}
	return claims, nil
}
