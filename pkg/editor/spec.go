package editor

import (
	"fmt"
	"strings"

	"github.com/dukex/flowdeck/pkg/draft"
	"github.com/dukex/flowdeck/pkg/models"
)

// Assignment is one field=value pair of an ActionSpec.
type Assignment struct {
	Path  draft.FieldPath
	Value string
}

// ActionSpec is a whole action written on one line, as accepted by
// `flowdeck create --action`:
//
//	email:to=a@b.com,subject=Hi,body=Welcome!
//	db:query=select 1,dbConfig.host=localhost,dbConfig.db=app
//
// Values cannot contain commas.
type ActionSpec struct {
	Kind   models.Kind
	Fields []Assignment
}

func ParseActionSpec(s string) (ActionSpec, error) {
	kindPart, fieldPart, _ := strings.Cut(strings.TrimSpace(s), ":")

	kind, ok := models.ParseKind(strings.TrimSpace(kindPart))
	if !ok {
		return ActionSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, kindPart)
	}

	spec := ActionSpec{Kind: kind}

	if strings.TrimSpace(fieldPart) == "" {
		return spec, nil
	}

	for _, pair := range strings.Split(fieldPart, ",") {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return ActionSpec{}, fmt.Errorf("%w: expected field=value, got %q", ErrBadActionSpec, pair)
		}

		spec.Fields = append(spec.Fields, Assignment{
			Path:  draft.ParseFieldPath(key),
			Value: strings.TrimSpace(value),
		})
	}

	return spec, nil
}

// Apply appends the action to store and fills its fields. It stops at the
// first field the kind does not have.
func (a ActionSpec) Apply(store *draft.Store) error {
	index := store.AppendAction()
	store.RetypeAction(index, a.Kind)

	for _, field := range a.Fields {
		if !store.PatchField(index, field.Path, field.Value) {
			return fmt.Errorf("%w: %s has no %s", ErrUnknownField, a.Kind, field.Path)
		}
	}

	return nil
}
