package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dukex/flowdeck/pkg/draft"
	"github.com/dukex/flowdeck/pkg/editor"
	"github.com/dukex/flowdeck/pkg/form"
	"github.com/dukex/flowdeck/pkg/models"
	cli "github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var errMissingID = errors.New("workflow id is required")

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "Print raw JSON",
}

func (a *app) kindsCommand() *cli.Command {
	return &cli.Command{
		Name:  "kinds",
		Usage: "List action types and their fields",
		Flags: []cli.Flag{jsonFlag},
		Action: func(_ context.Context, command *cli.Command) error {
			kinds := models.DescribeKinds()
			if command.Bool("json") {
				return a.print.json(kinds)
			}

			a.print.kinds(kinds)

			return nil
		},
	}
}

func (a *app) createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a workflow from flags or a YAML/JSON file",
		Description: "Actions are given as kind:field=value,... for example\n" +
			"  --action email:to=a@b.com,subject=Hi,body=Welcome!\n" +
			"  --action db:query=select 1,dbConfig.host=localhost,dbConfig.db=app",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Workflow name"},
			&cli.StringFlag{Name: "trigger", Aliases: []string{"t"}, Usage: "Trigger description"},
			&cli.StringSliceFlag{Name: "action", Aliases: []string{"a"}, Usage: "Action spec, repeatable"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Workflow file to start from"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the payload instead of submitting it"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			store := draft.New(a.logger)
			defer store.Close()

			if path := command.String("file"); path != "" {
				if err := editor.LoadFile(store, path); err != nil {
					return err
				}
			}

			if command.IsSet("name") {
				store.SetName(command.String("name"))
			}

			if command.IsSet("trigger") {
				store.SetTrigger(command.String("trigger"))
			}

			for _, raw := range command.StringSlice("action") {
				spec, err := editor.ParseActionSpec(raw)
				if err != nil {
					return err
				}

				if err := spec.Apply(store); err != nil {
					return err
				}
			}

			payload := store.ToPayload()
			if err := form.NewValidator().Validate(payload); err != nil {
				return err
			}

			if command.Bool("dry-run") {
				return a.print.json(payload)
			}

			return a.submit(ctx, store)
		},
	}
}

// submit sends the draft through the store and reports the created workflow.
func (a *app) submit(ctx context.Context, store *draft.Store) error {
	var created models.Workflow

	sender := draft.SenderFunc(func(ctx context.Context, path string, body any) (json.RawMessage, error) {
		raw, err := a.client.SendJSON(ctx, path, body)
		if err != nil {
			return raw, err
		}

		if err := json.Unmarshal(raw, &created); err != nil {
			a.logger.DebugContext(ctx, "Created workflow response is not a workflow", "error", err)

			created = models.Workflow{}
		}

		return raw, nil
	})

	if err := store.Submit(ctx, sender); err != nil {
		var se *draft.SubmitError
		if errors.As(err, &se) {
			a.print.line(se.UserMessage())

			return explain(se.Err)
		}

		return err
	}

	a.print.created(&created)

	return nil
}

func (a *app) editCommand() *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "Compose a workflow interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Workflow file to start from"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			store := draft.New(a.logger)
			defer store.Close()

			if path := command.String("file"); path != "" {
				if err := editor.LoadFile(store, path); err != nil {
					return err
				}
			}

			a.print.line("Type help for commands.")

			return editor.NewSession(store, a.client, a.out, a.logger).Run(ctx, a.in)
		},
	}
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Filter by name or trigger"},
			jsonFlag,
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			workflows, err := a.client.ListWorkflows(ctx, command.String("search"))
			if err != nil {
				return explain(err)
			}

			if command.Bool("json") {
				return a.print.json(models.WorkflowList{Workflows: workflows})
			}

			a.print.workflows(workflows)

			return nil
		},
	}
}

func (a *app) triggerCommand() *cli.Command {
	return &cli.Command{
		Name:      "trigger",
		Usage:     "Run a workflow now",
		ArgsUsage: "<workflow-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return errMissingID
			}

			raw, err := a.client.TriggerWorkflow(ctx, id)
			if err != nil {
				return explain(err)
			}

			var reply struct {
				Message      string                `json:"message"`
				WorkflowLogs []*models.WorkflowLog `json:"workflowLogs"`
			}

			if err := json.Unmarshal(raw, &reply); err != nil || reply.Message == "" {
				reply.Message = "Workflow triggered"
			}

			a.print.line(reply.Message + ": " + id)
			a.print.logs(reply.WorkflowLogs)

			return nil
		},
	}
}

func (a *app) deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a workflow",
		ArgsUsage: "<workflow-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return errMissingID
			}

			if err := a.client.DeleteWorkflow(ctx, id); err != nil {
				return explain(err)
			}

			a.print.line("Deleted workflow " + id)

			return nil
		},
	}
}

func (a *app) logsCommand() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Show execution logs, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workflow", Aliases: []string{"w"}, Usage: "Only logs of this workflow id"},
			jsonFlag,
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			var (
				logs []*models.WorkflowLog
				err  error
			)

			if id := command.String("workflow"); id != "" {
				logs, err = a.client.WorkflowLogs(ctx, id)
			} else {
				logs, err = a.client.RecentLogs(ctx)
			}

			if err != nil {
				return explain(err)
			}

			if command.Bool("json") {
				return a.print.json(models.WorkflowLogList{WorkflowLogs: logs})
			}

			a.print.logs(logs)

			return nil
		},
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Account email",
			Required: true,
			Sources:  cli.EnvVars("FLOWDECK_EMAIL"),
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Account password (prompted when omitted)",
			Sources: cli.EnvVars("FLOWDECK_PASSWORD"),
		},
	}
}

func (a *app) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session token",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			creds, err := a.credentials(command)
			if err != nil {
				return err
			}

			if err := a.client.Login(ctx, creds); err != nil {
				return err
			}

			a.print.line("Logged in as " + creds.Email)

			return nil
		},
	}
}

func (a *app) registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			creds, err := a.credentials(command)
			if err != nil {
				return err
			}

			if err := a.client.Register(ctx, creds); err != nil {
				return explain(err)
			}

			a.print.line("Registered " + creds.Email + "; run `flowdeck login` to sign in")

			return nil
		},
	}
}

func (a *app) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session token",
		Action: func(ctx context.Context, _ *cli.Command) error {
			if err := a.client.Logout(ctx); err != nil {
				return err
			}

			a.print.line("Logged out")

			return nil
		},
	}
}

func (a *app) credentials(command *cli.Command) (models.Credentials, error) {
	creds := models.Credentials{
		Email:    strings.TrimSpace(command.String("email")),
		Password: command.String("password"),
	}

	if creds.Password != "" {
		return creds, nil
	}

	password, err := a.readPassword()
	if err != nil {
		return creds, fmt.Errorf("failed to read password: %w", err)
	}

	creds.Password = password

	return creds, nil
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func (a *app) readPassword() (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(a.out, "Password: ")

		secret, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(a.out)

		return string(secret), err
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
