package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/library-gateway/internal/api/dto"
	"github.com/spec-kit/library-gateway/internal/auth"
	apperrors "github.com/spec-kit/library-gateway/pkg/util"
)

// IdentityHandler serves the verified identity of the caller.
type IdentityHandler struct{}

// NewIdentityHandler constructs handler.
func NewIdentityHandler() *IdentityHandler {
	return &IdentityHandler{}
}

// Me handles GET /api/auth/me.
func (h *IdentityHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Identity == nil {
		return apperrors.NewUnauthorized("missing principal")
	}
	return c.JSON(dto.SessionResponse{Data: dto.SessionData{User: principal.Identity}})
}
