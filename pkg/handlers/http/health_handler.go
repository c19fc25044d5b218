package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/cache"
	"github.com/sentinelsec/guardgate/pkg/registry"
	"github.com/sentinelsec/guardgate/pkg/validators"
)

type healthHandler struct {
	logger   *logrus.Logger
	registry *registry.Registry
	manager  validators.Manager
	cache    *cache.ReportCache
}

func NewHealthHandler(
	logger *logrus.Logger,
	reg *registry.Registry,
	manager validators.Manager,
	reportCache *cache.ReportCache,
) Handler {
	return &healthHandler{
		logger:   logger,
		registry: reg,
		manager:  manager,
		cache:    reportCache,
	}
}

func (h *healthHandler) Handle(c *fiber.Ctx) error {
	loaded := make(map[string]bool)
	for _, name := range h.manager.Names() {
		loaded[name] = true
	}

	cacheConnected := false
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Context(), time.Second)
		defer cancel()
		cacheConnected = h.cache.Ping(ctx) == nil
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":          "healthy",
		"validators":      loaded,
		"cache_connected": cacheConnected,
		"guardrails":      h.registry.List(),
		"time":            time.Now().Format(time.RFC3339),
	})
}
