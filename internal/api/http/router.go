package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/library-gateway/internal/api/http/handlers"
	"github.com/spec-kit/library-gateway/internal/auth"
	"github.com/spec-kit/library-gateway/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Identity    *handlers.IdentityHandler
	Pages       *handlers.PageHandler
	Credentials *auth.CredentialMiddleware
	Gateway     *auth.GatewayMiddleware
}

// RegisterRoutes wires HTTP routes. Local routes are matched first; every
// other request passes through the page gateway and on to the pages.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	health := app.Group("/health")
	health.Get("/live", cfg.Health.Live)
	health.Get("/ready", cfg.Health.Ready)
	health.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api/auth")
	api.Get("/me", cfg.Credentials.Handle, auth.RequireRole(domain.RoleAdmin, domain.RoleStudent), cfg.Identity.Me)

	app.Use(cfg.Gateway.Handle)
	app.Use(cfg.Pages.Serve)
}
