// Package persistence provides the storage abstraction for workflows and their logs.
package persistence

import (
	"context"

	"github.com/dukex/flowdeck/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	LogRepository() LogRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ListWorkflowsOptions filters a workflow listing.
type ListWorkflowsOptions struct {
	// Search matches name or trigger, case-insensitively. Empty matches all.
	Search string
	// UserID restricts the listing to one owner. Empty matches all.
	UserID string
}

type WorkflowRepository interface {
	// List returns workflows newest first.
	List(ctx context.Context, opts ListWorkflowsOptions) ([]*models.Workflow, error)
	// GetByID returns ErrWorkflowNotFound when no workflow has the id.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	// Delete returns ErrWorkflowNotFound when no workflow has the id.
	Delete(ctx context.Context, id string) error
}

type LogRepository interface {
	Append(ctx context.Context, logs ...*models.WorkflowLog) error
	// Recent returns at most limit logs across all workflows, newest first.
	// A limit of zero or less returns every log.
	Recent(ctx context.Context, limit int) ([]*models.WorkflowLog, error)
	// ByWorkflow returns the logs of one workflow, newest first.
	ByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowLog, error)
}
