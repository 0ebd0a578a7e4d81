package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/go-playground/validator/v10"
)

// Problem is one invalid input. Key matches Field.Key, prefixed with the
// action position ("actions[1].dbConfig.host") for action fields.
type Problem struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// ValidationError lists every invalid input of a draft.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Key + " " + p.Message
	}

	return "invalid workflow: " + strings.Join(parts, "; ")
}

// IsValidationError checks if an error is a draft validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

type workflowFields struct {
	Name    string `json:"name"    validate:"required"`
	Trigger string `json:"trigger" validate:"required"`
}

// Validator checks drafts against the required inputs of the rendered form.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: v}
}

// Validate returns a *ValidationError when a required input is empty or an
// input is malformed. It returns nil for a valid payload.
func (v *Validator) Validate(payload models.CreateWorkflowRequest) error {
	var problems []Problem

	problems = append(problems, v.check("", workflowFields{Name: payload.Name, Trigger: payload.Trigger})...)

	for i, action := range payload.Actions {
		problems = append(problems, v.check(fmt.Sprintf("actions[%d].", i), action)...)
	}

	if len(problems) == 0 {
		return nil
	}

	return &ValidationError{Problems: problems}
}

// ValidateAction validates a single action; keys are relative to the action.
func (v *Validator) ValidateAction(action models.Action) []Problem {
	return v.check("", action)
}

func (v *Validator) check(prefix string, target any) []Problem {
	err := v.validate.Struct(target)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Problem{{Key: strings.TrimSuffix(prefix, "."), Message: err.Error()}}
	}

	out := make([]Problem, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// Namespace is "<Type>.<json path>"; drop the type.
		_, key, _ := strings.Cut(fe.Namespace(), ".")
		out = append(out, Problem{Key: prefix + key, Message: message(fe)})
	}

	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
