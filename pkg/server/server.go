package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/config"
	"github.com/sentinelsec/guardgate/pkg/server/router"
)

// Server is the runnable HTTP surface.
type Server interface {
	Run() error
	Shutdown() error
}

type APIServer struct {
	config *config.Config
	logger *logrus.Logger
	app    *fiber.App
}

func NewAPIServer(cfg *config.Config, logger *logrus.Logger) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReduceMemoryUsage:     true,
		Network:               fiber.NetworkTCP,
		BodyLimit:             4 * 1024 * 1024,
		ReadTimeout:           60 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Server().NoDefaultServerHeader = true
	app.Server().NoDefaultDate = true

	return &APIServer{
		config: cfg,
		logger: logger,
		app:    app,
	}
}

func (s *APIServer) WithRouters(routers ...router.ServerRouter) (*APIServer, error) {
	for _, r := range routers {
		if err := r.BuildRoutes(s.app); err != nil {
			return nil, fmt.Errorf("failed to build routes: %w", err)
		}
	}
	return s, nil
}

func (s *APIServer) Run() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.WithField("addr", addr).Info("starting guardgate server")
	return s.app.Listen(addr)
}

func (s *APIServer) Shutdown() error {
	s.logger.Info("shutting down guardgate server")
	return s.app.ShutdownWithTimeout(10 * time.Second)
}

// App exposes the fiber app for handler tests.
func (s *APIServer) App() *fiber.App {
	return s.app
}
