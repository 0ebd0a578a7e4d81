package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/flowdeck/pkg/cmd"
	"github.com/dukex/flowdeck/pkg/log"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"github.com/dukex/flowdeck/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort        = 9091
	defaultDatabaseURL = "file://./data"
)

func main() {
	command := &cli.Command{
		Name:                  "flowdeck-api",
		Usage:                 "Serve the workflow API for local development",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL: file://<dir> or postgres://...",
				Value:   defaultDatabaseURL,
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Keep login sessions in Redis (redis://host:port/db) instead of memory",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Publish workflow events to: none, kafka",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers for --event-bus=kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "no-auth",
				Usage:   "Serve workflow routes without bearer tokens",
				Sources: cli.EnvVars("DISABLE_AUTH"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP (configured by OTEL_EXPORTER_OTLP_* variables)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   log.FormatText,
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing flowdeck API")

	tracer := otelhelper.NoopTracer()

	if command.Bool("tracing") {
		var (
			shutdown otelhelper.ShutdownFunc
			err      error
		)

		tracer, shutdown, err = otelhelper.NewTracer(ctx, "flowdeck-api")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdown(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	if command.Bool("no-auth") {
		logger.WarnContext(ctx, "Authentication disabled; workflows are shared by every caller")
	}

	var authOptions []services.AuthOption

	if redisURL := command.String("redis-url"); redisURL != "" {
		sessions, err := services.NewRedisSessionsFromURL(ctx, redisURL)
		if err != nil {
			return err
		}

		defer func() {
			if err := sessions.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close redis sessions", "error", err)
			}
		}()

		logger.InfoContext(ctx, "Storing sessions in redis")

		authOptions = append(authOptions, services.WithSessionStore(sessions))
	}

	publisher, err := cmd.NewEventPublisher(command.String("event-bus"), command.StringSlice("kafka-brokers"), logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}

	api := NewAPI(logger, persistence, tracer, !command.Bool("no-auth"), authOptions...)

	if publisher != nil {
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event publisher", "error", err)
			}
		}()

		api.WithPublisher(publisher)
	}

	return api.Start(command.Int("port"))
}
