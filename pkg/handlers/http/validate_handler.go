package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/orchestrator"
	"github.com/sentinelsec/guardgate/pkg/registry"
	"github.com/sentinelsec/guardgate/pkg/types"
)

type validateHandler struct {
	logger       *logrus.Logger
	orchestrator *orchestrator.Orchestrator
}

func NewValidateHandler(logger *logrus.Logger, o *orchestrator.Orchestrator) Handler {
	return &validateHandler{
		logger:       logger,
		orchestrator: o,
	}
}

type validateResponse struct {
	Status string `json:"status"`
	types.ValidationReport
}

func (h *validateHandler) Handle(c *fiber.Ctx) error {
	var req types.ValidationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	traceID := uuid.New().String()
	log := h.logger.WithFields(logrus.Fields{
		"trace_id":  traceID,
		"guardrail": req.GuardrailName,
	})

	report, err := h.orchestrator.Validate(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrEmptyText):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, registry.ErrGuardrailNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		default:
			log.WithError(err).Error("validation failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "validation failed"})
		}
	}

	log.WithFields(logrus.Fields{
		"valid":  report.Valid,
		"cached": report.Cached,
	}).Info("validation completed")

	return c.Status(fiber.StatusOK).JSON(validateResponse{
		Status:           "success",
		ValidationReport: *report,
	})
}
