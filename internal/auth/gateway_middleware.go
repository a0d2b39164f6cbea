package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/library-gateway/internal/observability"
)

// GatewayMiddleware runs the gateway once per inbound page request.
type GatewayMiddleware struct {
	gateway *Gateway
	cookie  CredentialCookie
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewGatewayMiddleware constructs middleware.
func NewGatewayMiddleware(gateway *Gateway, cookie CredentialCookie, logger *zap.Logger, metrics *observability.Metrics) *GatewayMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayMiddleware{gateway: gateway, cookie: cookie, logger: logger, metrics: metrics}
}

// Handle applies the decision: redirect, clear the credential cookie, or
// pass the request on. Decisions are made on the canonical path, which is
// also what later handlers forward. Excluded paths are never inspected.
func (m *GatewayMiddleware) Handle(c *fiber.Ctx) error {
	path, err := RequestPath(c)
	if err != nil {
		return err
	}
	if Excluded(path) {
		return c.Next()
	}

	decision := m.gateway.Decide(path, m.cookie.Get(c))
	m.metrics.RecordDecision(decision.Rule, decision.Kind.String())
	m.logger.Debug("gateway decision",
		zap.String("path", path),
		zap.Int("rule", decision.Rule),
		zap.Stringer("decision", decision.Kind),
		zap.String("location", decision.Location))

	if decision.ClearsCredential() {
		m.cookie.Clear(c)
		m.logger.Info("cleared invalid credential", zap.String("path", path))
	}
	if decision.Redirects() {
		return c.Redirect(decision.Location, fiber.StatusTemporaryRedirect)
	}
	return c.Next()
}
