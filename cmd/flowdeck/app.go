package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dukex/flowdeck/pkg/auth"
	"github.com/dukex/flowdeck/pkg/client"
	"github.com/dukex/flowdeck/pkg/log"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

var errNotLoggedIn = errors.New("not logged in: run `flowdeck login` first")

// app carries what every command needs once the root flags are parsed.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	logger   *slog.Logger
	tracer   trace.Tracer
	shutdown otelhelper.ShutdownFunc
	client   *client.Client
	print    *printer
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, print: newPrinter(out)}
}

func (a *app) setup(ctx context.Context, command *cli.Command) (context.Context, error) {
	a.logger = log.New(a.errOut, command.String("log-level"), command.String("log-format")).
		With("module", "flowdeck")

	a.tracer = otelhelper.NoopTracer()

	if command.Bool("tracing") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, "flowdeck")
		if err != nil {
			return ctx, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		a.tracer = tracer
		a.shutdown = shutdown
	}

	c, err := client.New(client.Config{
		BaseURL: command.String("api-url"),
		Timeout: command.Duration("timeout"),
		Tokens:  auth.NewFileStore(command.String("token-file")),
		Logger:  a.logger,
		Tracer:  a.tracer,
	})
	if err != nil {
		return ctx, err
	}

	a.client = c

	return ctx, nil
}

func (a *app) teardown(ctx context.Context, _ *cli.Command) error {
	if a.shutdown == nil {
		return nil
	}

	if err := a.shutdown(ctx); err != nil {
		a.logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
	}

	return nil
}

// explain turns API errors into something a user can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case client.IsAuthError(err):
		return fmt.Errorf("%w (%w)", errNotLoggedIn, err)
	case client.IsNetworkError(err):
		return fmt.Errorf("cannot reach the workflow API: %w", err)
	default:
		return err
	}
}
