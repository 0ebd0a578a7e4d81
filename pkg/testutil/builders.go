// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"encoding/json"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/google/uuid"
)

// CreateTestWorkflow creates a stored workflow with one email action. Overrides
// run in order.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:        uuid.NewString(),
		Name:      "Welcome Email",
		Trigger:   "on user login",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	WithActions(&models.EmailAction{To: "a@b.com", Subject: "Hi", Body: "Welcome!"})(workflow)

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithActions replaces the workflow actions with the wire form of actions.
func WithActions(actions ...models.Action) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Actions = make([]json.RawMessage, 0, len(actions))

		for _, action := range actions {
			raw, err := json.Marshal(action)
			if err != nil {
				panic(err)
			}

			w.Actions = append(w.Actions, raw)
		}
	}
}

// WithOwner sets the owning user.
func WithOwner(userID string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.UserID = userID
	}
}

// WithName sets name and trigger.
func WithName(name, trigger string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
		w.Trigger = trigger
	}
}

// WithCreatedAt sets the creation time.
func WithCreatedAt(t time.Time) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.CreatedAt = t
	}
}

// CreateTestLog creates a queued log entry for workflow.
func CreateTestLog(workflow *models.Workflow, actionType string, createdAt time.Time) *models.WorkflowLog {
	return &models.WorkflowLog{
		ID:           uuid.NewString(),
		WorkflowName: workflow.Name,
		WorkflowID:   workflow.ID,
		ActionType:   actionType,
		Status:       models.LogStatusQueued,
		Message:      actionType + " action queued by manual trigger",
		CreatedAt:    createdAt,
	}
}
