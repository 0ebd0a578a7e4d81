package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownActionKind is returned when a "type" discriminator names no known kind.
	ErrUnknownActionKind = errors.New("unknown action type")
	// ErrMissingActionKind is returned when an action object has no "type".
	ErrMissingActionKind = errors.New("action type is required")
)

type typeTag struct {
	Type Kind `json:"type"`
}

func (a EmailAction) MarshalJSON() ([]byte, error) {
	type fields EmailAction

	return json.Marshal(struct {
		typeTag
		fields
	}{typeTag{KindEmail}, fields(a)})
}

func (a WebhookAction) MarshalJSON() ([]byte, error) {
	type fields WebhookAction

	return json.Marshal(struct {
		typeTag
		fields
	}{typeTag{KindWebhook}, fields(a)})
}

func (a SlackAction) MarshalJSON() ([]byte, error) {
	type fields SlackAction

	return json.Marshal(struct {
		typeTag
		fields
	}{typeTag{KindSlack}, fields(a)})
}

func (a S3Action) MarshalJSON() ([]byte, error) {
	type fields S3Action

	return json.Marshal(struct {
		typeTag
		fields
	}{typeTag{KindS3}, fields(a)})
}

func (a DBAction) MarshalJSON() ([]byte, error) {
	type fields DBAction

	return json.Marshal(struct {
		typeTag
		fields
	}{typeTag{KindDB}, fields(a)})
}

// DecodeAction reads one wire action, dispatching on its "type" field.
//
//nolint:ireturn // closed sum type
func DecodeAction(data []byte) (Action, error) {
	var tag typeTag
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("failed to decode action type: %w", err)
	}

	if tag.Type == "" {
		return nil, ErrMissingActionKind
	}

	action := DefaultFor(tag.Type)
	if action == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionKind, tag.Type)
	}

	if err := json.Unmarshal(data, decodeTarget(action)); err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", tag.Type, err)
	}

	return action, nil
}

// decodeTarget strips the MarshalJSON-bearing type so that decoding fills the
// variant's fields directly. Fields absent from the input keep their defaults.
func decodeTarget(a Action) any {
	switch v := a.(type) {
	case *EmailAction:
		type fields EmailAction

		return (*fields)(v)
	case *WebhookAction:
		type fields WebhookAction

		return (*fields)(v)
	case *SlackAction:
		type fields SlackAction

		return (*fields)(v)
	case *S3Action:
		type fields S3Action

		return (*fields)(v)
	case *DBAction:
		type fields DBAction

		return (*fields)(v)
	default:
		return a
	}
}

// Actions is an ordered action list that round-trips through the wire format.
type Actions []Action

func (as *Actions) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Actions, 0, len(raw))

	for i, item := range raw {
		action, err := DecodeAction(item)
		if err != nil {
			return fmt.Errorf("actions[%d]: %w", i, err)
		}

		out = append(out, action)
	}

	*as = out

	return nil
}

// Clone deep-copies every action in the list.
func (as Actions) Clone() Actions {
	if as == nil {
		return nil
	}

	out := make(Actions, len(as))
	for i, a := range as {
		out[i] = a.Clone()
	}

	return out
}

// Kinds lists the kind of each action, in order.
func (as Actions) Kinds() []Kind {
	out := make([]Kind, len(as))
	for i, a := range as {
		out[i] = a.Kind()
	}

	return out
}
