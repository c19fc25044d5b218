package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handlers "github.com/sentinelsec/guardgate/pkg/handlers/http"
	guardprometheus "github.com/sentinelsec/guardgate/pkg/infra/prometheus"
	"github.com/sentinelsec/guardgate/pkg/middleware"
)

var ErrMissingHandler = errors.New("handler transport is incomplete")

type apiRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    handlers.HandlerTransport
}

func NewAPIRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport handlers.HandlerTransport,
) ServerRouter {
	return &apiRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *apiRouter) BuildRoutes(router *fiber.App) error {
	ht := r.handlerTransport
	if ht.ValidateHandler == nil || ht.ValidateBatchHandler == nil ||
		ht.ListGuardrailsHandler == nil || ht.HealthHandler == nil ||
		ht.GetVersionHandler == nil {
		return ErrMissingHandler
	}

	router.Use(r.middlewareTransport.RecoverMiddleware.Middleware())
	router.Use(r.middlewareTransport.MetricsMiddleware.Middleware())

	router.Get("/health", ht.HealthHandler.Handle)
	router.Get("/version", ht.GetVersionHandler.Handle)
	router.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(guardprometheus.Registry(), promhttp.HandlerOpts{}),
	))

	v1 := router.Group("/api/v1")
	{
		v1.Use(r.middlewareTransport.AuthMiddleware.Middleware())
		if r.middlewareTransport.RateLimitMiddleware != nil {
			v1.Use(r.middlewareTransport.RateLimitMiddleware.Middleware())
		}

		v1.Post("/validate", ht.ValidateHandler.Handle)
		v1.Post("/validate/batch", ht.ValidateBatchHandler.Handle)
		v1.Get("/guardrails", ht.ListGuardrailsHandler.Handle)
	}

	return nil
}
