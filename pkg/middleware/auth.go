package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/common"
)

// authMiddleware checks the static API key header. Requests without a valid
// key are rejected before any orchestration runs.
type authMiddleware struct {
	logger *logrus.Logger
	apiKey string
}

func NewAuthMiddleware(logger *logrus.Logger, apiKey string) Middleware {
	return &authMiddleware{
		logger: logger,
		apiKey: apiKey,
	}
}

func (m *authMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		apiKey := ctx.Get(common.AuthHeader)
		if apiKey == "" {
			m.logger.Debug("no api key provided")
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "API key required"})
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(m.apiKey)) != 1 {
			m.logger.Debug("invalid api key")
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid API key"})
		}

		ctx.Locals(common.ApiKeyKey, apiKey)
		return ctx.Next()
	}
}
