// Package events defines the notifications the workflow API publishes for
// downstream workers.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every workflow event.
const Topic = "flowdeck.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowTriggeredEvent EventType = "workflow.triggered"
	WorkflowDeletedEvent   EventType = "workflow.deleted"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflowId"`
	UserID     string    `json:"userId,omitempty"`
}

func newBase(eventType EventType, workflowID, userID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		UserID:     userID,
	}
}

// WorkflowTriggered asks a worker to run the actions of a workflow. LogIDs
// are the queued log entries the worker is expected to update.
type WorkflowTriggered struct {
	BaseEvent

	WorkflowName string            `json:"workflowName"`
	Actions      []json.RawMessage `json:"actions"`
	LogIDs       []string          `json:"logIds"`
}

func NewWorkflowTriggered(workflowID, userID, name string, actions []json.RawMessage, logIDs []string) WorkflowTriggered {
	return WorkflowTriggered{
		BaseEvent:    newBase(WorkflowTriggeredEvent, workflowID, userID),
		WorkflowName: name,
		Actions:      actions,
		LogIDs:       logIDs,
	}
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func NewWorkflowDeleted(workflowID, userID string) WorkflowDeleted {
	return WorkflowDeleted{BaseEvent: newBase(WorkflowDeletedEvent, workflowID, userID)}
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}
