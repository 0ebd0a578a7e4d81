package models

import (
	"slices"
	"strings"
)

// Kind identifies an action variant. It travels on the wire as "type".
type Kind string

const (
	KindEmail   Kind = "email"
	KindWebhook Kind = "webhook"
	KindSlack   Kind = "slack"
	KindS3      Kind = "s3"
	KindDB      Kind = "db"
)

// Webhook methods and S3 operations accepted by the editing surface.
const (
	WebhookMethodPost = "POST"
	WebhookMethodGet  = "GET"

	S3OperationUpload   = "upload"
	S3OperationDownload = "download"
)

// Field names as they appear on the wire.
const (
	FieldTo        = "to"
	FieldSubject   = "subject"
	FieldBody      = "body"
	FieldURL       = "url"
	FieldMethod    = "method"
	FieldPayload   = "payload"
	FieldChannel   = "channel"
	FieldMessage   = "message"
	FieldOperation = "operation"
	FieldFilePath  = "filePath"
	FieldQuery     = "query"
	FieldDBConfig  = "dbConfig"

	DBConfigHost     = "host"
	DBConfigUser     = "user"
	DBConfigPassword = "password"
	DBConfigDB       = "db"
)

var kinds = []Kind{KindEmail, KindWebhook, KindSlack, KindS3, KindDB}

// Kinds returns every action kind in presentation order. The first entry is
// the kind new actions start with.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// ParseKind maps a raw type string to a Kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))

	return k, k.Valid()
}

// Valid reports whether k is one of Kinds().
func (k Kind) Valid() bool {
	return slices.Contains(kinds, k)
}

// Label is the upper-case name shown in kind pickers.
func (k Kind) Label() string {
	return strings.ToUpper(string(k))
}

func (k Kind) String() string {
	return string(k)
}

// Action is one step of a workflow. The set of implementations is closed:
// *EmailAction, *WebhookAction, *SlackAction, *S3Action and *DBAction.
type Action interface {
	Kind() Kind
	// Clone returns a deep copy that shares no state with the receiver.
	Clone() Action

	setField(field, value string) bool
	setNestedField(field, key, value string) bool
	field(field string) (string, bool)
	nestedField(field, key string) (string, bool)
}

// EmailAction sends an email.
type EmailAction struct {
	To      string `json:"to"      validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body"    validate:"required"`
}

// WebhookAction calls an HTTP endpoint. Payload is opaque and optional.
type WebhookAction struct {
	URL     string `json:"url"               validate:"required,url"`
	Method  string `json:"method"            validate:"required,oneof=POST GET"`
	Payload string `json:"payload,omitempty"`
}

// SlackAction posts a message to a channel.
type SlackAction struct {
	Channel string `json:"channel" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// S3Action moves a file to or from object storage.
type S3Action struct {
	Operation string `json:"operation" validate:"required,oneof=upload download"`
	FilePath  string `json:"filePath"  validate:"required"`
}

// DBAction runs a query against the database described by DBConfig.
type DBAction struct {
	Query    string   `json:"query"    validate:"required"`
	DBConfig DBConfig `json:"dbConfig"`
}

// DBConfig holds connection settings for a DBAction. It is patched key by key.
type DBConfig struct {
	Host     string `json:"host"     validate:"required"`
	User     string `json:"user"     validate:"required"`
	Password string `json:"password" validate:"required"`
	DB       string `json:"db"       validate:"required"`
}

// DefaultFor returns a fresh action of kind k with every field at its
// default. It returns nil for an unknown kind.
//
//nolint:ireturn // closed sum type
func DefaultFor(k Kind) Action {
	switch k {
	case KindEmail:
		return &EmailAction{}
	case KindWebhook:
		return &WebhookAction{Method: WebhookMethodPost}
	case KindSlack:
		return &SlackAction{}
	case KindS3:
		return &S3Action{Operation: S3OperationUpload}
	case KindDB:
		return &DBAction{}
	default:
		return nil
	}
}

// FieldsOf lists the top-level wire fields of kind k in form order.
func FieldsOf(k Kind) []string {
	switch k {
	case KindEmail:
		return []string{FieldTo, FieldSubject, FieldBody}
	case KindWebhook:
		return []string{FieldURL, FieldMethod, FieldPayload}
	case KindSlack:
		return []string{FieldChannel, FieldMessage}
	case KindS3:
		return []string{FieldOperation, FieldFilePath}
	case KindDB:
		return []string{FieldQuery, FieldDBConfig}
	default:
		return nil
	}
}

// NestedFieldsOf lists the keys of a nested field. Only db/dbConfig has any.
func NestedFieldsOf(k Kind, field string) []string {
	if k == KindDB && field == FieldDBConfig {
		return []string{DBConfigHost, DBConfigUser, DBConfigPassword, DBConfigDB}
	}

	return nil
}

// IsNestedField reports whether field of kind k is a record rather than a string.
func IsNestedField(k Kind, field string) bool {
	return len(NestedFieldsOf(k, field)) > 0
}

// SetField overwrites a top-level string field. It reports false and leaves
// the action untouched when the field does not belong to the action's kind.
func SetField(a Action, field, value string) bool {
	if a == nil {
		return false
	}

	return a.setField(field, value)
}

// SetNestedField overwrites one key of a nested field, keeping the other keys.
func SetNestedField(a Action, field, key, value string) bool {
	if a == nil {
		return false
	}

	return a.setNestedField(field, key, value)
}

// FieldValue reads a top-level string field.
func FieldValue(a Action, field string) (string, bool) {
	if a == nil {
		return "", false
	}

	return a.field(field)
}

// NestedFieldValue reads one key of a nested field.
func NestedFieldValue(a Action, field, key string) (string, bool) {
	if a == nil {
		return "", false
	}

	return a.nestedField(field, key)
}

func (*EmailAction) Kind() Kind { return KindEmail }

//nolint:ireturn // closed sum type
func (a *EmailAction) Clone() Action {
	c := *a

	return &c
}

func (a *EmailAction) setField(field, value string) bool {
	switch field {
	case FieldTo:
		a.To = value
	case FieldSubject:
		a.Subject = value
	case FieldBody:
		a.Body = value
	default:
		return false
	}

	return true
}

func (a *EmailAction) field(field string) (string, bool) {
	switch field {
	case FieldTo:
		return a.To, true
	case FieldSubject:
		return a.Subject, true
	case FieldBody:
		return a.Body, true
	default:
		return "", false
	}
}

func (*EmailAction) setNestedField(_, _, _ string) bool { return false }

func (*EmailAction) nestedField(_, _ string) (string, bool) { return "", false }

func (*WebhookAction) Kind() Kind { return KindWebhook }

//nolint:ireturn // closed sum type
func (a *WebhookAction) Clone() Action {
	c := *a

	return &c
}

func (a *WebhookAction) setField(field, value string) bool {
	switch field {
	case FieldURL:
		a.URL = value
	case FieldMethod:
		a.Method = value
	case FieldPayload:
		a.Payload = value
	default:
		return false
	}

	return true
}

func (a *WebhookAction) field(field string) (string, bool) {
	switch field {
	case FieldURL:
		return a.URL, true
	case FieldMethod:
		return a.Method, true
	case FieldPayload:
		return a.Payload, true
	default:
		return "", false
	}
}

func (*WebhookAction) setNestedField(_, _, _ string) bool { return false }

func (*WebhookAction) nestedField(_, _ string) (string, bool) { return "", false }

func (*SlackAction) Kind() Kind { return KindSlack }

//nolint:ireturn // closed sum type
func (a *SlackAction) Clone() Action {
	c := *a

	return &c
}

func (a *SlackAction) setField(field, value string) bool {
	switch field {
	case FieldChannel:
		a.Channel = value
	case FieldMessage:
		a.Message = value
	default:
		return false
	}

	return true
}

func (a *SlackAction) field(field string) (string, bool) {
	switch field {
	case FieldChannel:
		return a.Channel, true
	case FieldMessage:
		return a.Message, true
	default:
		return "", false
	}
}

func (*SlackAction) setNestedField(_, _, _ string) bool { return false }

func (*SlackAction) nestedField(_, _ string) (string, bool) { return "", false }

func (*S3Action) Kind() Kind { return KindS3 }

//nolint:ireturn // closed sum type
func (a *S3Action) Clone() Action {
	c := *a

	return &c
}

func (a *S3Action) setField(field, value string) bool {
	switch field {
	case FieldOperation:
		a.Operation = value
	case FieldFilePath:
		a.FilePath = value
	default:
		return false
	}

	return true
}

func (a *S3Action) field(field string) (string, bool) {
	switch field {
	case FieldOperation:
		return a.Operation, true
	case FieldFilePath:
		return a.FilePath, true
	default:
		return "", false
	}
}

func (*S3Action) setNestedField(_, _, _ string) bool { return false }

func (*S3Action) nestedField(_, _ string) (string, bool) { return "", false }

func (*DBAction) Kind() Kind { return KindDB }

// Clone copies the action. DBConfig is a value, so the copy is deep.
//
//nolint:ireturn // closed sum type
func (a *DBAction) Clone() Action {
	c := *a

	return &c
}

// dbConfig is a record and can only be patched key by key.
func (a *DBAction) setField(field, value string) bool {
	if field != FieldQuery {
		return false
	}

	a.Query = value

	return true
}

func (a *DBAction) field(field string) (string, bool) {
	if field != FieldQuery {
		return "", false
	}

	return a.Query, true
}

func (a *DBAction) setNestedField(field, key, value string) bool {
	if field != FieldDBConfig {
		return false
	}

	switch key {
	case DBConfigHost:
		a.DBConfig.Host = value
	case DBConfigUser:
		a.DBConfig.User = value
	case DBConfigPassword:
		a.DBConfig.Password = value
	case DBConfigDB:
		a.DBConfig.DB = value
	default:
		return false
	}

	return true
}

func (a *DBAction) nestedField(field, key string) (string, bool) {
	if field != FieldDBConfig {
		return "", false
	}

	switch key {
	case DBConfigHost:
		return a.DBConfig.Host, true
	case DBConfigUser:
		return a.DBConfig.User, true
	case DBConfigPassword:
		return a.DBConfig.Password, true
	case DBConfigDB:
		return a.DBConfig.DB, true
	default:
		return "", false
	}
}
