// Package main provides the flowdeck development API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/flowdeck/pkg/eventbus"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/dukex/flowdeck/pkg/services"
	"github.com/dukex/flowdeck/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

// APIPrefix is where the workflow routes are mounted.
const APIPrefix = "/api"

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publisher   eventbus.Publisher
	tracer      trace.Tracer
	requireAuth bool
	authOptions []services.AuthOption
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	tracer trace.Tracer,
	requireAuth bool,
	authOptions ...services.AuthOption,
) *API {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &API{
		logger:      logger,
		persistence: persistence,
		tracer:      tracer,
		requireAuth: requireAuth,
		authOptions: authOptions,
	}
}

// WithPublisher announces workflow triggers and deletions on publisher.
func (a *API) WithPublisher(publisher eventbus.Publisher) *API {
	a.publisher = publisher

	return a
}

func (a *API) App() (*fiber.App, error) {
	var opts []services.WorkflowOption
	if a.publisher != nil {
		opts = append(opts, services.WithPublisher(a.publisher))
	}

	workflowService, err := services.NewWorkflow(a.persistence, a.logger, opts...)
	if err != nil {
		return nil, err
	}

	authService := services.NewAuth(a.logger, a.authOptions...)

	handlers := web.NewAPIHandlers(workflowService, authService)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(web.Tracing(a.tracer))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("flowdeck API")
	})

	var guard fiber.Handler
	if a.requireAuth {
		guard = web.RequireToken(authService)
	}

	handlers.Routes(app.Group(APIPrefix), guard)

	app.Get("/health", handlers.HealthCheck)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
