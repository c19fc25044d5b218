package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(c *fiber.Ctx) error
}

// HandlerTransport bundles every HTTP handler for route building.
type HandlerTransport struct {
	ValidateHandler       Handler
	ValidateBatchHandler  Handler
	ListGuardrailsHandler Handler
	HealthHandler         Handler
	GetVersionHandler     Handler
}
