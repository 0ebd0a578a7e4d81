// Package form describes how each action kind is rendered for editing and
// validates a draft before it is submitted.
package form

import (
	"github.com/dukex/flowdeck/pkg/draft"
	"github.com/dukex/flowdeck/pkg/models"
)

// InputType tells the editing surface which control to show.
type InputType string

const (
	InputText     InputType = "text"
	InputEmail    InputType = "email"
	InputURL      InputType = "url"
	InputPassword InputType = "password"
	InputSelect   InputType = "select"
)

// Option is one choice of a select input.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field is one rendered input of an action. Path is what the editing surface
// passes back to draft.Store.PatchField when the input changes.
type Field struct {
	Path        draft.FieldPath `json:"-"`
	Key         string          `json:"key"`
	Placeholder string          `json:"placeholder"`
	Input       InputType       `json:"input"`
	Required    bool            `json:"required"`
	Options     []Option        `json:"options,omitempty"`
	Value       string          `json:"value"`
}

type spec struct {
	path        draft.FieldPath
	placeholder string
	input       InputType
	required    bool
	options     []Option
}

var methodOptions = []Option{
	{Value: models.WebhookMethodPost, Label: "POST"},
	{Value: models.WebhookMethodGet, Label: "GET"},
}

var operationOptions = []Option{
	{Value: models.S3OperationUpload, Label: "Upload"},
	{Value: models.S3OperationDownload, Label: "Download"},
}

func dbConfig(key string) draft.FieldPath {
	return draft.NestedField(models.FieldDBConfig, key)
}

var layouts = map[models.Kind][]spec{
	models.KindEmail: {
		{draft.Field(models.FieldTo), "To", InputEmail, true, nil},
		{draft.Field(models.FieldSubject), "Subject", InputText, true, nil},
		{draft.Field(models.FieldBody), "Body", InputText, true, nil},
	},
	models.KindWebhook: {
		{draft.Field(models.FieldURL), "URL", InputURL, true, nil},
		{draft.Field(models.FieldMethod), "Method", InputSelect, true, methodOptions},
		{draft.Field(models.FieldPayload), "Payload (optional)", InputText, false, nil},
	},
	models.KindSlack: {
		{draft.Field(models.FieldChannel), "Channel", InputText, true, nil},
		{draft.Field(models.FieldMessage), "Message", InputText, true, nil},
	},
	models.KindS3: {
		{draft.Field(models.FieldOperation), "Operation", InputSelect, true, operationOptions},
		{draft.Field(models.FieldFilePath), "File Path", InputText, true, nil},
	},
	models.KindDB: {
		{draft.Field(models.FieldQuery), "Query", InputText, true, nil},
		{dbConfig(models.DBConfigHost), "DB Host", InputText, true, nil},
		{dbConfig(models.DBConfigUser), "DB User", InputText, true, nil},
		{dbConfig(models.DBConfigPassword), "DB Password", InputPassword, true, nil},
		{dbConfig(models.DBConfigDB), "DB Name", InputText, true, nil},
	},
}

// KindOptions lists the kind picker entries in models.Kinds() order.
func KindOptions() []Option {
	kinds := models.Kinds()
	out := make([]Option, len(kinds))

	for i, k := range kinds {
		out[i] = Option{Value: string(k), Label: k.Label()}
	}

	return out
}

// Render returns the inputs for action, filled with its current values.
// Only fields of the action's own kind are ever rendered.
func Render(action models.Action) []Field {
	if action == nil {
		return nil
	}

	layout := layouts[action.Kind()]
	out := make([]Field, 0, len(layout))

	for _, s := range layout {
		out = append(out, Field{
			Path:        s.path,
			Key:         s.path.String(),
			Placeholder: s.placeholder,
			Input:       s.input,
			Required:    s.required,
			Options:     s.options,
			Value:       valueOf(action, s.path),
		})
	}

	return out
}

func valueOf(action models.Action, path draft.FieldPath) string {
	var v string
	if path.IsNested() {
		v, _ = models.NestedFieldValue(action, path.Field, path.Nested)
	} else {
		v, _ = models.FieldValue(action, path.Field)
	}

	return v
}
