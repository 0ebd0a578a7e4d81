// Package main provides the flowdeck command line client.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dukex/flowdeck/pkg/auth"
	"github.com/dukex/flowdeck/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultAPIURL  = "http://localhost:9091/api"
	defaultTimeout = 30 * time.Second
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)

	if err := app.command().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:                  "flowdeck",
		Usage:                 "Compose, submit and audit automation workflows",
		EnableShellCompletion: true,
		Writer:                a.out,
		ErrWriter:             a.errOut,
		Reader:                a.in,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the workflow API",
				Value:   defaultAPIURL,
				Sources: cli.EnvVars("FLOWDECK_API_URL"),
			},
			&cli.StringFlag{
				Name:    "token-file",
				Usage:   "Where the session token is kept",
				Value:   auth.DefaultTokenPath(),
				Sources: cli.EnvVars("FLOWDECK_TOKEN_FILE"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout of each API request",
				Value:   defaultTimeout,
				Sources: cli.EnvVars("FLOWDECK_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP (configured by OTEL_EXPORTER_OTLP_* variables)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   log.FormatText,
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Before: a.setup,
		After:  a.teardown,
		Commands: []*cli.Command{
			a.kindsCommand(),
			a.createCommand(),
			a.editCommand(),
			a.listCommand(),
			a.triggerCommand(),
			a.deleteCommand(),
			a.logsCommand(),
			a.loginCommand(),
			a.registerCommand(),
			a.logoutCommand(),
		},
	}
}
