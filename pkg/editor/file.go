package editor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/dukex/flowdeck/pkg/draft"
	"github.com/dukex/flowdeck/pkg/models"
	"gopkg.in/yaml.v3"
)

// workflowFile is the on-disk shape of a workflow. JSON files parse too.
type workflowFile struct {
	Name    string           `yaml:"name"`
	Trigger string           `yaml:"trigger"`
	Actions []map[string]any `yaml:"actions"`
}

// LoadFile reads a YAML or JSON workflow file into store.
func LoadFile(store *draft.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	return Load(store, data)
}

// Load fills store from a YAML or JSON document. Each action goes through the
// same append, retype and patch steps as interactive editing. The document is
// checked against a scratch draft first, so store is left untouched on error.
func Load(store *draft.Store, data []byte) error {
	var doc workflowFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse workflow file: %w", err)
	}

	specs := make([]ActionSpec, len(doc.Actions))
	scratch := draft.New(slog.New(slog.DiscardHandler))

	for i, raw := range doc.Actions {
		spec, err := specFromMap(raw)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}

		if err := spec.Apply(scratch); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}

		specs[i] = spec
	}

	store.SetName(doc.Name)
	store.SetTrigger(doc.Trigger)

	for i, spec := range specs {
		if err := spec.Apply(store); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}

	return nil
}

func specFromMap(raw map[string]any) (ActionSpec, error) {
	kindName, _ := raw["type"].(string)

	kind, ok := models.ParseKind(kindName)
	if !ok {
		return ActionSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, kindName)
	}

	spec := ActionSpec{Kind: kind}

	for _, key := range sortedKeys(raw) {
		if key == "type" {
			continue
		}

		nested, isRecord := raw[key].(map[string]any)
		if !isRecord || !models.IsNestedField(kind, key) {
			value, err := scalar(raw[key])
			if err != nil {
				return ActionSpec{}, fmt.Errorf("field %s: %w", key, err)
			}

			spec.Fields = append(spec.Fields, Assignment{Path: draft.Field(key), Value: value})

			continue
		}

		for _, nestedKey := range sortedKeys(nested) {
			value, err := scalar(nested[nestedKey])
			if err != nil {
				return ActionSpec{}, fmt.Errorf("field %s.%s: %w", key, nestedKey, err)
			}

			spec.Fields = append(spec.Fields, Assignment{Path: draft.NestedField(key, nestedKey), Value: value})
		}
	}

	return spec, nil
}

// scalar flattens a value into a string field. Records and lists outside
// dbConfig are opaque text, such as a webhook payload, and are kept as JSON.
func scalar(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode value: %w", err)
		}

		return string(data), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
