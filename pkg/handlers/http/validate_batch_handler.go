package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/orchestrator"
	"github.com/sentinelsec/guardgate/pkg/registry"
	"github.com/sentinelsec/guardgate/pkg/types"
)

type validateBatchHandler struct {
	logger       *logrus.Logger
	orchestrator *orchestrator.Orchestrator
}

func NewValidateBatchHandler(logger *logrus.Logger, o *orchestrator.Orchestrator) Handler {
	return &validateBatchHandler{
		logger:       logger,
		orchestrator: o,
	}
}

type validateBatchRequest struct {
	Texts         []string `json:"texts"`
	GuardrailName string   `json:"guardrail_name,omitempty"`
}

type validateBatchResponse struct {
	Status          string                    `json:"status"`
	Reports         []*types.ValidationReport `json:"reports"`
	Count           int                       `json:"count"`
	ExecutionTimeMs float64                   `json:"execution_time_ms"`
}

func (h *validateBatchHandler) Handle(c *fiber.Ctx) error {
	var req validateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	traceID := uuid.New().String()
	log := h.logger.WithFields(logrus.Fields{
		"trace_id":  traceID,
		"guardrail": req.GuardrailName,
		"items":     len(req.Texts),
	})

	start := time.Now()
	reports, err := h.orchestrator.ValidateBatch(c.Context(), req.Texts, req.GuardrailName)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrEmptyBatch), errors.Is(err, orchestrator.ErrBatchTooLarge):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, registry.ErrGuardrailNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		default:
			log.WithError(err).Error("batch validation failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "batch validation failed"})
		}
	}

	log.Info("batch validation completed")

	return c.Status(fiber.StatusOK).JSON(validateBatchResponse{
		Status:          "success",
		Reports:         reports,
		Count:           len(reports),
		ExecutionTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	})
}
