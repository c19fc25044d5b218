package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	guardprometheus "github.com/sentinelsec/guardgate/pkg/infra/prometheus"
)

type metricsMiddleware struct {
	logger *logrus.Logger
}

func NewMetricsMiddleware(logger *logrus.Logger) Middleware {
	return &metricsMiddleware{logger: logger}
}

func (m *metricsMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()

		err := ctx.Next()

		method := ctx.Method()
		// Route path keeps cardinality bounded; raw paths would explode it.
		endpoint := ctx.Route().Path
		status := strconv.Itoa(ctx.Response().StatusCode())

		guardprometheus.RequestTotal.WithLabelValues(method, endpoint, status).Inc()
		guardprometheus.RequestLatency.WithLabelValues(method, endpoint).
			Observe(float64(time.Since(start).Microseconds()) / 1000.0)

		return err
	}
}
