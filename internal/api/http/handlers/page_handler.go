package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	"github.com/spec-kit/library-gateway/internal/auth"
)

// PageHandler serves requests the gateway let through, either by
// forwarding them to the front end or with a placeholder body.
type PageHandler struct {
	upstream string
	logger   *zap.Logger
}

// NewPageHandler forwards to upstream when it is set.
func NewPageHandler(upstream string, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{upstream: strings.TrimRight(upstream, "/"), logger: logger}
}

// Serve handles every remaining route. The upstream receives the canonical
// path the gateway decided on, never the raw one.
func (h *PageHandler) Serve(c *fiber.Ctx) error {
	path, err := auth.RequestPath(c)
	if err != nil {
		return err
	}
	if h.upstream == "" {
		return c.JSON(fiber.Map{"page": path})
	}

	target := h.upstream + auth.EscapedPath(path)
	if query := c.Request().URI().QueryString(); len(query) > 0 {
		target += "?" + string(query)
	}
	if err := proxy.Do(c, target); err != nil {
		h.logger.Warn("upstream request failed", zap.String("target", target), zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "upstream unavailable")
	}
	return nil
}
