package web

import "github.com/dukex/flowdeck/pkg/models"

// TriggerResponse is returned by POST /trigger/{id}.
type TriggerResponse struct {
	Message      string                `json:"message"`
	WorkflowLogs []*models.WorkflowLog `json:"workflowLogs"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// KindsResponse is returned by GET /kinds.
type KindsResponse struct {
	Kinds []models.KindInfo `json:"kinds"`
}
