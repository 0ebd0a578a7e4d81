package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowdeck/pkg/eventbus"
	"github.com/dukex/flowdeck/pkg/events"
	"github.com/dukex/flowdeck/pkg/form"
	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RecentLogsLimit caps GET /workflows/logs/all.
const RecentLogsLimit = 50

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.Publisher
	validator   *form.Validator
	schema      *gojsonschema.Schema
	logger      *slog.Logger
}

type WorkflowOption func(*Workflow)

// WithPublisher announces triggers and deletions on an event bus.
func WithPublisher(publisher eventbus.Publisher) WorkflowOption {
	return func(w *Workflow) { w.publisher = publisher }
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, logger *slog.Logger, opts ...WorkflowOption) (*Workflow, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(models.PayloadSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile payload schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	w := &Workflow{
		persistence: persistence,
		validator:   form.NewValidator(),
		schema:      schema,
		logger:      logger.With("module", "workflow_service"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates a POST /workflows body and stores it for userID.
// The body is checked structurally against models.PayloadSchema first, then
// field by field the way the editing form does.
func (w *Workflow) Create(ctx context.Context, userID string, body []byte) (*models.Workflow, error) {
	result, err := w.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, NewValidationError("Create", "invalid_json", "body is not valid JSON")
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}

		return nil, NewValidationError("Create", "schema_violation", strings.Join(problems, "; "))
	}

	var req models.CreateWorkflowRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, NewValidationError("Create", "invalid_action", err.Error())
	}

	if err := w.validator.Validate(req); err != nil {
		return nil, NewValidationError("Create", "validation_error", err.Error())
	}

	actions := make([]json.RawMessage, 0, len(req.Actions))

	for _, action := range req.Actions {
		raw, err := json.Marshal(action)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s action: %w", action.Kind(), err)
		}

		actions = append(actions, raw)
	}

	workflow := &models.Workflow{
		Name:    req.Name,
		Trigger: req.Trigger,
		Actions: actions,
		UserID:  userID,
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.Int(otelhelper.ActionCountKey, len(actions)),
	)

	w.logger.InfoContext(ctx, "Workflow created", "workflow_id", workflow.ID, "actions", len(actions))

	return workflow, nil
}

// List returns the workflows of userID matching search, newest first.
func (w *Workflow) List(ctx context.Context, userID, search string) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().List(ctx, persistence.ListWorkflowsOptions{
		Search: search,
		UserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID returns a workflow owned by userID. Workflows of other users are reported as not found.
func (w *Workflow) FetchByID(ctx context.Context, userID, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if userID != "" && workflow.UserID != userID {
		return nil, persistence.NewWorkflowError("FetchByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

func (w *Workflow) Delete(ctx context.Context, userID, id string) error {
	if _, err := w.FetchByID(ctx, userID, id); err != nil {
		return err
	}

	if err := w.persistence.WorkflowRepository().Delete(ctx, id); err != nil {
		return err
	}

	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, id, events.NewWorkflowDeleted(id, userID)); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish workflow deletion", "workflow_id", id, "error", err)
		}
	}

	w.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", id)

	return nil
}

// Trigger records one queued log entry per action of the workflow and, with a
// publisher configured, announces it to workers. Nothing is executed here.
func (w *Workflow) Trigger(ctx context.Context, userID, id string) ([]*models.WorkflowLog, error) {
	workflow, err := w.FetchByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	logs := make([]*models.WorkflowLog, 0, len(workflow.Actions))
	for _, actionType := range workflow.ActionTypes() {
		logs = append(logs, &models.WorkflowLog{
			WorkflowName: workflow.Name,
			WorkflowID:   workflow.ID,
			ActionType:   actionType,
			Status:       models.LogStatusQueued,
			Message:      fmt.Sprintf("%s action queued by manual trigger", actionType),
		})
	}

	if err := w.persistence.LogRepository().Append(ctx, logs...); err != nil {
		return nil, fmt.Errorf("failed to record trigger: %w", err)
	}

	if w.publisher != nil {
		logIDs := make([]string, len(logs))
		for i, entry := range logs {
			logIDs[i] = entry.ID
		}

		event := events.NewWorkflowTriggered(workflow.ID, userID, workflow.Name, workflow.Actions, logIDs)
		if err := w.publisher.Publish(ctx, workflow.ID, event); err != nil {
			return nil, fmt.Errorf("failed to publish trigger: %w", err)
		}
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.StringSlice(otelhelper.ActionTypeKey, workflow.ActionTypes()),
	)

	w.logger.InfoContext(ctx, "Workflow triggered", "workflow_id", id, "actions", len(logs))

	return logs, nil
}

// RecentLogs returns the latest logs across the workflows of userID. An empty
// userID sees every log.
func (w *Workflow) RecentLogs(ctx context.Context, userID string) ([]*models.WorkflowLog, error) {
	if userID == "" {
		logs, err := w.persistence.LogRepository().Recent(ctx, RecentLogsLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load logs: %w", err)
		}

		return logs, nil
	}

	workflows, err := w.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(workflows))
	for _, workflow := range workflows {
		owned[workflow.ID] = true
	}

	all, err := w.persistence.LogRepository().Recent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}

	logs := make([]*models.WorkflowLog, 0, RecentLogsLimit)
	for _, entry := range all {
		if owned[entry.WorkflowID] {
			logs = append(logs, entry)
		}

		if len(logs) == RecentLogsLimit {
			break
		}
	}

	return logs, nil
}

func (w *Workflow) Logs(ctx context.Context, userID, id string) ([]*models.WorkflowLog, error) {
	if _, err := w.FetchByID(ctx, userID, id); err != nil {
		return nil, err
	}

	logs, err := w.persistence.LogRepository().ByWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}

	return logs, nil
}
