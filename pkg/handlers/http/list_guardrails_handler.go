package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/registry"
)

type listGuardrailsHandler struct {
	logger   *logrus.Logger
	registry *registry.Registry
}

func NewListGuardrailsHandler(logger *logrus.Logger, reg *registry.Registry) Handler {
	return &listGuardrailsHandler{
		logger:   logger,
		registry: reg,
	}
}

type guardrailSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Validators  []string `json:"validators"`
}

func (h *listGuardrailsHandler) Handle(c *fiber.Ctx) error {
	guardrails := h.registry.All()
	out := make([]guardrailSummary, 0, len(guardrails))
	for _, g := range guardrails {
		names := make([]string, 0, len(g.Validators))
		for _, spec := range g.Validators {
			names = append(names, spec.Name)
		}
		out = append(out, guardrailSummary{
			Name:        g.Name,
			Description: g.Description,
			Validators:  names,
		})
	}
	return c.Status(fiber.StatusOK).JSON(out)
}
