package models

// JSONSchema represents a JSON Schema for configuration validation
type JSONSchema struct {
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
}

// Property represents a JSON Schema property
type Property struct {
	Type                 string               `json:"type,omitempty"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
	Const                any                  `json:"const,omitempty"`
	Enum                 []any                `json:"enum,omitempty"`
	Default              any                  `json:"default,omitempty"`
	Format               string               `json:"format,omitempty"`
	MinLength            *int                 `json:"minLength,omitempty"`
	MaxLength            *int                 `json:"maxLength,omitempty"`
	Pattern              string               `json:"pattern,omitempty"`
	Items                *Property            `json:"items,omitempty"`
	OneOf                []*Property          `json:"oneOf,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
}

// KindInfo describes an action kind for listings such as `flowdeck kinds`.
type KindInfo struct {
	Type        Kind        `json:"type"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Schema      *JSONSchema `json:"schema"`
}

var kindDescriptions = map[Kind]string{
	KindEmail:   "Sends an email to a single recipient.",
	KindWebhook: "Calls an HTTP endpoint with an optional payload.",
	KindSlack:   "Posts a message to a Slack channel.",
	KindS3:      "Uploads or downloads a file to or from S3.",
	KindDB:      "Runs a query against a database.",
}

// DescribeKinds returns one KindInfo per kind, in Kinds() order.
func DescribeKinds() []KindInfo {
	out := make([]KindInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, KindInfo{
			Type:        k,
			Label:       k.Label(),
			Description: kindDescriptions[k],
			Schema:      SchemaFor(k),
		})
	}

	return out
}

func stringProp(title string) *Property {
	return &Property{Type: "string", Title: title}
}

func enumProp(title, def string, values ...string) *Property {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}

	return &Property{Type: "string", Title: title, Enum: enum, Default: def}
}

func closed() *bool {
	f := false

	return &f
}

// SchemaFor returns the JSON Schema of a single wire action of kind k,
// including its "type" discriminator. It returns nil for an unknown kind.
func SchemaFor(k Kind) *JSONSchema {
	props := map[string]*Property{
		"type": {Type: "string", Const: string(k)},
	}

	var required []string

	switch k {
	case KindEmail:
		props[FieldTo] = stringProp("To")
		props[FieldSubject] = stringProp("Subject")
		props[FieldBody] = stringProp("Body")
		required = []string{FieldTo, FieldSubject, FieldBody}
	case KindWebhook:
		props[FieldURL] = stringProp("URL")
		props[FieldMethod] = enumProp("Method", WebhookMethodPost, WebhookMethodPost, WebhookMethodGet)
		props[FieldPayload] = stringProp("Payload (optional)")
		required = []string{FieldURL, FieldMethod}
	case KindSlack:
		props[FieldChannel] = stringProp("Channel")
		props[FieldMessage] = stringProp("Message")
		required = []string{FieldChannel, FieldMessage}
	case KindS3:
		props[FieldOperation] = enumProp("Operation", S3OperationUpload, S3OperationUpload, S3OperationDownload)
		props[FieldFilePath] = stringProp("File Path")
		required = []string{FieldOperation, FieldFilePath}
	case KindDB:
		props[FieldQuery] = stringProp("Query")
		props[FieldDBConfig] = &Property{
			Type:  "object",
			Title: "Database",
			Properties: map[string]*Property{
				DBConfigHost:     stringProp("DB Host"),
				DBConfigUser:     stringProp("DB User"),
				DBConfigPassword: {Type: "string", Title: "DB Password", Format: "password"},
				DBConfigDB:       stringProp("DB Name"),
			},
			Required:             []string{DBConfigHost, DBConfigUser, DBConfigPassword, DBConfigDB},
			AdditionalProperties: closed(),
		}
		required = []string{FieldQuery, FieldDBConfig}
	default:
		return nil
	}

	return &JSONSchema{
		Type:                 "object",
		Title:                k.Label(),
		Description:          kindDescriptions[k],
		Properties:           props,
		Required:             append([]string{"type"}, required...),
		AdditionalProperties: closed(),
	}
}

func (s *JSONSchema) property() *Property {
	return &Property{
		Type:                 s.Type,
		Title:                s.Title,
		Description:          s.Description,
		Properties:           s.Properties,
		Required:             s.Required,
		AdditionalProperties: s.AdditionalProperties,
	}
}

// PayloadSchema describes the body of POST /workflows.
func PayloadSchema() *JSONSchema {
	variants := make([]*Property, 0, len(kinds))
	for _, k := range kinds {
		variants = append(variants, SchemaFor(k).property())
	}

	return &JSONSchema{
		Type:  "object",
		Title: "Create workflow",
		Properties: map[string]*Property{
			"name":    stringProp("Workflow name"),
			"trigger": stringProp("Trigger"),
			"actions": {
				Type:  "array",
				Items: &Property{OneOf: variants},
			},
		},
		Required:             []string{"name", "trigger", "actions"},
		AdditionalProperties: closed(),
	}
}
