// Package editor is the terminal editing surface for workflow drafts. It turns
// typed commands into draft.Store edits and submits the result.
package editor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/dukex/flowdeck/pkg/draft"
	"github.com/dukex/flowdeck/pkg/form"
	"github.com/dukex/flowdeck/pkg/models"
)

const prompt = "flowdeck> "

const helpText = `Commands:
  name <value>                    set the workflow name
  trigger <value>                 set the trigger description
  add                             append an action (defaults to email)
  type <i> <kind>                 change the type of action i, clearing its fields
  set <i> <field>[.<key>] <value> set a field of action i (db: dbConfig.host ...)
  fields <i>                      list the inputs of action i
  show                            print the payload that would be submitted
  validate                        check required and malformed inputs
  submit                          validate and create the workflow
  kinds                           list action types
  help                            show this help
  quit                            leave without submitting
`

// Session reads editing commands and applies them to one draft.
type Session struct {
	store     *draft.Store
	sender    draft.Sender
	validator *form.Validator
	out       io.Writer
	logger    *slog.Logger
}

func NewSession(store *draft.Store, sender draft.Sender, out io.Writer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		store:     store,
		sender:    sender,
		validator: form.NewValidator(),
		out:       out,
		logger:    logger.With("module", "editor"),
	}
}

// Run executes commands read from in until quit, a successful submit, EOF or
// ctx is done. Command errors are printed and do not end the session.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	s.print(prompt)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := s.Exec(ctx, scanner.Text())
		if err != nil {
			s.printf("error: %v\n", err)
		}

		if done {
			return nil
		}

		s.print(prompt)
	}

	return scanner.Err()
}

// Exec runs one command line. done is true once the session should end.
func (s *Session) Exec(ctx context.Context, line string) (bool, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}

	switch strings.ToLower(args[0]) {
	case "name":
		s.store.SetName(rest(line, 1))
	case "trigger":
		s.store.SetTrigger(rest(line, 1))
	case "add":
		index := s.store.AppendAction()
		action, _ := s.store.Action(index)
		s.printf("Added action %d (%s)\n", index, action.Kind())
	case "type":
		return false, s.retype(args)
	case "set":
		return false, s.set(line, args)
	case "fields":
		return false, s.fields(args)
	case "show":
		return false, s.show()
	case "validate":
		s.validate()
	case "submit":
		return s.submit(ctx)
	case "kinds":
		for _, opt := range form.KindOptions() {
			s.printf("  %-8s %s\n", opt.Value, opt.Label)
		}
	case "help", "?":
		s.print(helpText)
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s (try help)", ErrUnknownCommand, args[0])
	}

	return false, nil
}

func (s *Session) retype(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: type <i> <kind>", ErrUsage)
	}

	index, err := s.index(args[1])
	if err != nil {
		return err
	}

	kind, ok := models.ParseKind(args[2])
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, args[2])
	}

	s.store.RetypeAction(index, kind)
	s.printf("Action %d is now %s\n", index, kind)

	return nil
}

func (s *Session) set(line string, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: set <i> <field>[.<key>] <value>", ErrUsage)
	}

	index, err := s.index(args[1])
	if err != nil {
		return err
	}

	path := draft.ParseFieldPath(args[2])
	if !s.store.PatchField(index, path, rest(line, 3)) {
		action, _ := s.store.Action(index)

		return fmt.Errorf("%w: %s has no %s", ErrUnknownField, action.Kind(), path)
	}

	return nil
}

func (s *Session) fields(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: fields <i>", ErrUsage)
	}

	index, err := s.index(args[1])
	if err != nil {
		return err
	}

	action, _ := s.store.Action(index)
	s.printf("Action %d (%s)\n", index, action.Kind())

	for _, field := range form.Render(action) {
		value := field.Value
		if field.Input == form.InputPassword && value != "" {
			value = "********"
		}

		marker := " "
		if field.Required {
			marker = "*"
		}

		s.printf("%s %-18s %-20s %q\n", marker, field.Key, field.Placeholder, value)

		if len(field.Options) > 0 {
			choices := make([]string, len(field.Options))
			for i, opt := range field.Options {
				choices[i] = opt.Value
			}

			s.printf("  %-18s one of: %s\n", "", strings.Join(choices, ", "))
		}
	}

	return nil
}

func (s *Session) show() error {
	body, err := json.MarshalIndent(s.store.ToPayload(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	s.printf("%s\n", body)

	return nil
}

func (s *Session) validate() bool {
	err := s.validator.Validate(s.store.ToPayload())
	if err == nil {
		s.print("Draft is valid.\n")

		return true
	}

	var ve *form.ValidationError
	if errors.As(err, &ve) {
		for _, p := range ve.Problems {
			s.printf("  %s %s\n", p.Key, p.Message)
		}
	}

	return false
}

func (s *Session) submit(ctx context.Context) (bool, error) {
	if !s.validate() {
		return false, nil
	}

	err := s.store.Submit(ctx, s.sender)
	if err != nil {
		var se *draft.SubmitError
		if errors.As(err, &se) {
			s.printf("%s\n", se.UserMessage())
			s.logger.DebugContext(ctx, "Submit failed", "error", se.Err)
		}

		return false, err
	}

	s.print("Workflow created.\n")

	return true, nil
}

func (s *Session) index(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 || index >= s.store.Len() {
		return 0, fmt.Errorf("%w %s", ErrBadIndex, arg)
	}

	return index, nil
}

func (s *Session) print(text string) {
	_, _ = io.WriteString(s.out, text)
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// rest returns line without its first n words. A value wrapped in double
// quotes is unquoted so it may keep leading or trailing spaces.
func rest(line string, n int) string {
	value := strings.TrimSpace(line)

	for range n {
		cut := strings.IndexFunc(value, unicode.IsSpace)
		if cut < 0 {
			return ""
		}

		value = strings.TrimSpace(value[cut:])
	}

	if unquoted, err := strconv.Unquote(value); err == nil && strings.HasPrefix(value, `"`) {
		return unquoted
	}

	return value
}
