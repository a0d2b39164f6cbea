package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/library-gateway/internal/domain"
	apperrors "github.com/spec-kit/library-gateway/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the verified caller of an API route.
type Principal struct {
	Claims   *Claims
	Identity *domain.Identity
}

// IdentityResolver turns verified claims into the stored identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, claims *Claims) (*domain.Identity, error)
}

// CredentialMiddleware guards API routes. Unlike the page gateway it never
// redirects: callers get a 401 envelope instead.
type CredentialMiddleware struct {
	verifier   CredentialVerifier
	cookie     CredentialCookie
	identities IdentityResolver
}

// NewCredentialMiddleware constructs middleware.
func NewCredentialMiddleware(verifier CredentialVerifier, cookie CredentialCookie, identities IdentityResolver) *CredentialMiddleware {
	return &CredentialMiddleware{verifier: verifier, cookie: cookie, identities: identities}
}

// Handle verifies the credential (cookie first, then bearer header) and
// loads the principal.
func (m *CredentialMiddleware) Handle(c *fiber.Ctx) error {
	raw := m.cookie.Get(c)
	if raw == "" {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		raw = token
	}

	claims, err := m.verifier.Verify(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid credential")
	}

	identity, err := m.identities.Resolve(c.UserContext(), claims)
	if err != nil {
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{Claims: claims, Identity: identity})
	return c.Next()
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing credential")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
