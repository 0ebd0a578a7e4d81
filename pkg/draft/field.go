package draft

import "strings"

// FieldPath addresses a field of an action: either a top-level field, or one
// key of a nested record (only db/dbConfig has one).
type FieldPath struct {
	Field  string
	Nested string
}

// Field addresses a top-level field.
func Field(name string) FieldPath {
	return FieldPath{Field: name}
}

// NestedField addresses key inside the record held by field.
func NestedField(field, key string) FieldPath {
	return FieldPath{Field: field, Nested: key}
}

// ParseFieldPath reads "field" or "field.key".
func ParseFieldPath(s string) FieldPath {
	field, key, _ := strings.Cut(strings.TrimSpace(s), ".")

	return FieldPath{Field: field, Nested: key}
}

// IsNested reports whether the path selects a key inside a record.
func (p FieldPath) IsNested() bool {
	return p.Nested != ""
}

func (p FieldPath) String() string {
	if p.IsNested() {
		return p.Field + "." + p.Nested
	}

	return p.Field
}
