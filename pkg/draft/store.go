// Package draft holds the editable state of a workflow before it is submitted.
package draft

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukex/flowdeck/pkg/models"
)

// WorkflowsPath is where drafts are submitted.
const WorkflowsPath = "/workflows"

// Sender posts a JSON body and returns the decoded response body.
type Sender interface {
	SendJSON(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, path string, body any) (json.RawMessage, error)

func (f SenderFunc) SendJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return f(ctx, path, body)
}

// Store owns one workflow draft and applies every edit made to it.
//
// Actions are addressed by position. Edits that name an index out of range,
// or a field the action's current kind does not have, are ignored: they come
// from UI events racing a retype and must not break the editing surface.
type Store struct {
	mu     sync.Mutex
	logger *slog.Logger

	name    string
	trigger string
	actions models.Actions

	submitting bool
	closed     bool
}

// New returns an empty draft.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		logger:  logger.With("module", "draft"),
		actions: models.Actions{},
	}
}

func (s *Store) SetName(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.name = value
}

func (s *Store) SetTrigger(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trigger = value
}

// AppendAction adds a default action of the first kind and returns its index.
func (s *Store) AppendAction() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions = append(s.actions, models.DefaultFor(models.Kinds()[0]))
	index := len(s.actions) - 1

	s.logger.Debug("Appended action", "index", index, "type", s.actions[index].Kind())

	return index
}

// RetypeAction replaces the action at index with a fresh default of kind.
// Nothing is carried over from the previous kind. It reports whether the
// action was replaced.
func (s *Store) RetypeAction(index int, kind models.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inRange(index) {
		s.logger.Debug("Ignoring retype of missing action", "index", index)

		return false
	}

	fresh := models.DefaultFor(kind)
	if fresh == nil {
		s.logger.Debug("Ignoring retype to unknown kind", "index", index, "type", kind)

		return false
	}

	s.actions[index] = fresh

	s.logger.Debug("Retyped action", "index", index, "type", kind)

	return true
}

// PatchField sets one field of the action at index. A nested path overwrites
// only the named key of dbConfig and keeps the others. It reports whether the
// action changed; invalid paths are ignored.
func (s *Store) PatchField(index int, path FieldPath, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inRange(index) {
		s.logger.Debug("Ignoring patch of missing action", "index", index, "field", path.String())

		return false
	}

	action := s.actions[index]

	var ok bool
	if path.IsNested() {
		ok = models.SetNestedField(action, path.Field, path.Nested, value)
	} else {
		ok = models.SetField(action, path.Field, value)
	}

	if !ok {
		s.logger.Debug("Ignoring patch of unknown field", "index", index, "type", action.Kind(), "field", path.String())
	}

	return ok
}

func (s *Store) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.name
}

func (s *Store) Trigger() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.trigger
}

// Len returns the number of actions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.actions)
}

// Action returns a copy of the action at index.
//
//nolint:ireturn // closed sum type
func (s *Store) Action(index int) (models.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inRange(index) {
		return nil, false
	}

	return s.actions[index].Clone(), true
}

// Actions returns a copy of every action, in order.
func (s *Store) Actions() models.Actions {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.actions.Clone()
}

// ToPayload returns a snapshot of the draft in wire shape. Later edits do not
// affect a returned payload.
func (s *Store) ToPayload() models.CreateWorkflowRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

// Submit sends the draft to WorkflowsPath. On success the draft is reset to
// empty. On failure it is left unchanged and a *SubmitError is returned.
// Only one submit may be in flight; a result that arrives after Close is
// dropped.
func (s *Store) Submit(ctx context.Context, sender Sender) error {
	s.mu.Lock()

	switch {
	case s.closed:
		s.mu.Unlock()

		return ErrDraftClosed
	case s.submitting:
		s.mu.Unlock()

		return ErrSubmitInFlight
	}

	s.submitting = true
	payload := s.snapshot()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Submitting workflow", "name", payload.Name, "actions", len(payload.Actions))

	_, err := sender.SendJSON(ctx, WorkflowsPath, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false

	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to submit workflow", "name", payload.Name, "error", err)

		return &SubmitError{Path: WorkflowsPath, Err: err}
	}

	if s.closed {
		s.logger.DebugContext(ctx, "Dropping submit result for closed draft", "name", payload.Name)

		return nil
	}

	s.reset()

	s.logger.InfoContext(ctx, "Workflow submitted", "name", payload.Name)

	return nil
}

// Submitting reports whether a submit is in flight.
func (s *Store) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.submitting
}

// Reset returns the draft to its empty state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
}

// Close discards the draft. Further submits fail with ErrDraftClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.reset()
}

func (s *Store) inRange(index int) bool {
	return index >= 0 && index < len(s.actions)
}

func (s *Store) snapshot() models.CreateWorkflowRequest {
	return models.CreateWorkflowRequest{
		Name:    s.name,
		Trigger: s.trigger,
		Actions: s.actions.Clone(),
	}
}

func (s *Store) reset() {
	s.name = ""
	s.trigger = ""
	s.actions = models.Actions{}
}
