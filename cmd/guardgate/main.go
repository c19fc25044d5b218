package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sentinelsec/guardgate/pkg/cache"
	"github.com/sentinelsec/guardgate/pkg/config"
	handlers "github.com/sentinelsec/guardgate/pkg/handlers/http"
	infraLogger "github.com/sentinelsec/guardgate/pkg/infra/logger"
	guardprometheus "github.com/sentinelsec/guardgate/pkg/infra/prometheus"
	"github.com/sentinelsec/guardgate/pkg/middleware"
	"github.com/sentinelsec/guardgate/pkg/orchestrator"
	"github.com/sentinelsec/guardgate/pkg/registry"
	"github.com/sentinelsec/guardgate/pkg/server"
	"github.com/sentinelsec/guardgate/pkg/server/router"
	"github.com/sentinelsec/guardgate/pkg/validators"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	if err := config.Load(configPath); err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	if cfg.Auth.APIKey == "" {
		logger.Fatal("auth.api_key (or AUTH_API_KEY) must be configured")
	}

	guardprometheus.Initialize()

	// Validator implementations; a failing moderation backend config is a
	// startup error, not a per-request surprise.
	manager, err := validators.NewManager(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize validators: %v", err)
	}

	guardrailConfigs, err := config.LoadGuardrails(configPath)
	if err != nil {
		logger.Fatalf("failed to load guardrails: %v", err)
	}
	reg, err := registry.NewRegistry(logger, guardrailConfigs, manager)
	if err != nil {
		logger.Fatalf("failed to build guardrail registry: %v", err)
	}

	var reportCache *cache.ReportCache
	var resultCache orchestrator.ResultCache
	if cfg.Cache.Enabled {
		reportCache = cache.NewReportCache(cfg.Redis, cfg.Cache, logger)
		resultCache = reportCache
	}

	orch := orchestrator.NewOrchestrator(logger, reg, manager, resultCache, cfg)

	middlewareTransport := &middleware.Transport{
		AuthMiddleware:    middleware.NewAuthMiddleware(logger, cfg.Auth.APIKey),
		MetricsMiddleware: middleware.NewMetricsMiddleware(logger),
		RecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
	}
	if cfg.RateLimit.Enabled && reportCache != nil {
		middlewareTransport.RateLimitMiddleware = middleware.NewRateLimitMiddleware(
			logger, reportCache.Client(), cfg.RateLimit, nil,
		)
	}

	handlerTransport := handlers.HandlerTransport{
		ValidateHandler:       handlers.NewValidateHandler(logger, orch),
		ValidateBatchHandler:  handlers.NewValidateBatchHandler(logger, orch),
		ListGuardrailsHandler: handlers.NewListGuardrailsHandler(logger, reg),
		HealthHandler:         handlers.NewHealthHandler(logger, reg, manager, reportCache),
		GetVersionHandler:     handlers.NewGetVersionHandler(logger),
	}

	srv, err := server.NewAPIServer(cfg, logger).WithRouters(
		router.NewAPIRouter(middlewareTransport, handlerTransport),
	)
	if err != nil {
		logger.Fatalf("failed to build server: %v", err)
	}

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
