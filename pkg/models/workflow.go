// Package models defines the workflow action model and the API payloads built from it
package models

import (
	"encoding/json"
	"time"
)

// CreateWorkflowRequest is the body of POST /workflows. Actions serialize in
// their wire form, one "type"-tagged object per action.
type CreateWorkflowRequest struct {
	Name    string  `json:"name"`
	Trigger string  `json:"trigger"`
	Actions Actions `json:"actions"`
}

// Workflow is a stored workflow as returned by the API. Actions are kept raw
// because the server may hold kinds this client cannot edit (AI agents).
type Workflow struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Trigger   string            `json:"trigger"`
	Actions   []json.RawMessage `json:"actions"`
	UserID    string            `json:"userId"`
	CreatedAt time.Time         `json:"createdAt"`
	IsAI      bool              `json:"isAI,omitempty"`
	Prompt    string            `json:"prompt,omitempty"`
	AIContext json.RawMessage   `json:"aiContext,omitempty"`
}

// ActionTypes returns the "type" of every stored action, including kinds
// outside Kinds(). Unreadable entries are reported as an empty string.
func (w *Workflow) ActionTypes() []string {
	out := make([]string, len(w.Actions))

	for i, raw := range w.Actions {
		var tag struct {
			Type string `json:"type"`
		}

		if err := json.Unmarshal(raw, &tag); err == nil {
			out[i] = tag.Type
		}
	}

	return out
}

// DecodeActions decodes the stored actions into editable variants.
func (w *Workflow) DecodeActions() (Actions, error) {
	out := make(Actions, 0, len(w.Actions))

	for _, raw := range w.Actions {
		action, err := DecodeAction(raw)
		if err != nil {
			return nil, err
		}

		out = append(out, action)
	}

	return out, nil
}

// Log statuses written by the workflow API.
const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
	LogStatusQueued  = "queued"
)

// WorkflowLog is one audit entry for an action run.
type WorkflowLog struct {
	ID           string    `json:"id"`
	WorkflowName string    `json:"workflowName"`
	WorkflowID   string    `json:"workflowId"`
	ActionType   string    `json:"actionType"`
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WorkflowList is the envelope of GET /workflows.
type WorkflowList struct {
	Workflows []*Workflow `json:"workflows"`
}

// WorkflowLogList is the envelope of the log endpoints.
type WorkflowLogList struct {
	WorkflowLogs []*WorkflowLog `json:"workflowLogs"`
}

// Credentials is the body of the login and register endpoints.
type Credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}
