package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// API paths, relative to the base URL.
const (
	PathWorkflows  = "/workflows"
	PathTrigger    = "/trigger"
	PathRecentLogs = "/workflows/logs/all"
	PathLogs       = "/workflows/logs"
	PathLogin      = "/auth/login"
	PathRegister   = "/auth/register"
)

// ErrMissingToken indicates a login response without a token.
var ErrMissingToken = errors.New("login response did not include a token")

func decode[T any](raw json.RawMessage, what string) (*T, error) {
	var out T
	if len(raw) == 0 {
		return &out, nil
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}

	return &out, nil
}

// CreateWorkflow submits a new workflow and returns the stored copy.
func (c *Client) CreateWorkflow(ctx context.Context, req models.CreateWorkflowRequest) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.create_workflow",
		attribute.String(otelhelper.WorkflowNameKey, req.Name),
		attribute.Int(otelhelper.ActionCountKey, len(req.Actions)),
	)
	defer span.End()

	raw, err := c.SendJSON(ctx, PathWorkflows, req)
	if err != nil {
		return nil, err
	}

	created, err := decode[models.Workflow](raw, "workflow")
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, created.ID))

	return created, nil
}

// ListWorkflows lists workflows. A non-blank search filters by name or trigger.
func (c *Client) ListWorkflows(ctx context.Context, search string) ([]*models.Workflow, error) {
	var query url.Values
	if q := strings.TrimSpace(search); q != "" {
		query = url.Values{"searchQuery": []string{q}}
	}

	raw, err := c.FetchJSON(ctx, PathWorkflows, query)
	if err != nil {
		return nil, err
	}

	list, err := decode[models.WorkflowList](raw, "workflow list")
	if err != nil {
		return nil, err
	}

	return list.Workflows, nil
}

// DeleteWorkflow removes a workflow by id.
func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, PathWorkflows+"/"+url.PathEscape(id))

	return err
}

// TriggerWorkflow asks the API to run a workflow now and returns its reply.
func (c *Client) TriggerWorkflow(ctx context.Context, id string) (json.RawMessage, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.trigger_workflow",
		attribute.String(otelhelper.WorkflowIDKey, id),
	)
	defer span.End()

	return c.SendJSON(ctx, PathTrigger+"/"+url.PathEscape(id), struct{}{})
}

// RecentLogs returns the latest logs across all workflows.
func (c *Client) RecentLogs(ctx context.Context) ([]*models.WorkflowLog, error) {
	return c.logs(ctx, PathRecentLogs)
}

// WorkflowLogs returns the logs of one workflow.
func (c *Client) WorkflowLogs(ctx context.Context, id string) ([]*models.WorkflowLog, error) {
	return c.logs(ctx, PathLogs+"/"+url.PathEscape(id))
}

func (c *Client) logs(ctx context.Context, path string) ([]*models.WorkflowLog, error) {
	raw, err := c.FetchJSON(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	list, err := decode[models.WorkflowLogList](raw, "workflow logs")
	if err != nil {
		return nil, err
	}

	return list.WorkflowLogs, nil
}

// Login exchanges credentials for a token and saves it in the token store.
func (c *Client) Login(ctx context.Context, creds models.Credentials) error {
	raw, err := c.SendJSON(ctx, PathLogin, creds)
	if err != nil {
		return err
	}

	resp, err := decode[models.TokenResponse](raw, "login response")
	if err != nil {
		return err
	}

	if resp.Token == "" {
		return ErrMissingToken
	}

	if err := c.tokens.SetToken(ctx, resp.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	c.logger.InfoContext(ctx, "Logged in", "email", creds.Email)

	return nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, creds models.Credentials) error {
	_, err := c.SendJSON(ctx, PathRegister, creds)

	return err
}

// Logout forgets the stored token.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.Clear(ctx)
}
