package models

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds_Order(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Kind{KindEmail, KindWebhook, KindSlack, KindS3, KindDB}, Kinds())

	got := Kinds()
	got[0] = KindDB
	assert.Equal(t, KindEmail, Kinds()[0], "Kinds must return a copy")
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, ok := ParseKind(" DB ")
	assert.True(t, ok)
	assert.Equal(t, KindDB, k)

	_, ok = ParseKind("ai-agent")
	assert.False(t, ok)
	assert.Equal(t, "WEBHOOK", KindWebhook.Label())
}

func wireKeys(t *testing.T, a Action) []string {
	t.Helper()

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	return slices.Sorted(maps.Keys(m))
}

func TestDefaultFor_FieldSets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		keys []string
	}{
		{KindEmail, []string{"body", "subject", "to", "type"}},
		{KindWebhook, []string{"method", "type", "url"}},
		{KindSlack, []string{"channel", "message", "type"}},
		{KindS3, []string{"filePath", "operation", "type"}},
		{KindDB, []string{"dbConfig", "query", "type"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			a := DefaultFor(tt.kind)
			require.NotNil(t, a)
			assert.Equal(t, tt.kind, a.Kind())
			assert.Equal(t, tt.keys, wireKeys(t, a))
		})
	}
}

func TestDefaultFor_Values(t *testing.T) {
	t.Parallel()

	assert.Equal(t, &WebhookAction{Method: "POST"}, DefaultFor(KindWebhook))
	assert.Equal(t, &S3Action{Operation: "upload"}, DefaultFor(KindS3))
	assert.Equal(t, &DBAction{DBConfig: DBConfig{}}, DefaultFor(KindDB))
	assert.Nil(t, DefaultFor("ai-agent"))
}

func TestDefaultFor_NoAliasing(t *testing.T) {
	t.Parallel()

	first := DefaultFor(KindDB)
	second := DefaultFor(KindDB)

	require.True(t, SetNestedField(first, FieldDBConfig, DBConfigHost, "db.local"))

	host, _ := NestedFieldValue(second, FieldDBConfig, DBConfigHost)
	assert.Empty(t, host)
}

func TestSetField_RejectsForeignFields(t *testing.T) {
	t.Parallel()

	email := DefaultFor(KindEmail)
	assert.False(t, SetField(email, FieldURL, "https://example.com"))
	assert.Equal(t, &EmailAction{}, email)

	db := DefaultFor(KindDB)
	assert.False(t, SetField(db, FieldDBConfig, "host"), "dbConfig is not a string field")
	assert.False(t, SetNestedField(db, FieldDBConfig, "port", "5432"))
	assert.False(t, SetNestedField(email, FieldDBConfig, DBConfigHost, "x"))
	assert.False(t, SetField(nil, FieldTo, "x"))
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	orig := &DBAction{Query: "select 1", DBConfig: DBConfig{Host: "a"}}
	clone := orig.Clone()

	SetNestedField(clone, FieldDBConfig, DBConfigHost, "b")

	assert.Equal(t, "a", orig.DBConfig.Host)
}

func TestDecodeAction(t *testing.T) {
	t.Parallel()

	a, err := DecodeAction([]byte(`{"type":"db","query":"q","dbConfig":{"host":"h","user":"u","password":"p","db":"d"}}`))
	require.NoError(t, err)
	assert.Equal(t, &DBAction{Query: "q", DBConfig: DBConfig{Host: "h", User: "u", Password: "p", DB: "d"}}, a)

	a, err = DecodeAction([]byte(`{"type":"webhook","url":"https://x"}`))
	require.NoError(t, err)
	assert.Equal(t, &WebhookAction{URL: "https://x", Method: "POST"}, a, "absent fields keep defaults")

	_, err = DecodeAction([]byte(`{"type":"ai-agent","prompt":"hi"}`))
	assert.True(t, errors.Is(err, ErrUnknownActionKind))

	_, err = DecodeAction([]byte(`{"to":"a@b.com"}`))
	assert.ErrorIs(t, err, ErrMissingActionKind)
}

func TestActions_RoundTrip(t *testing.T) {
	t.Parallel()

	in := Actions{
		&EmailAction{To: "a@b.com", Subject: "Hi", Body: "Welcome!"},
		&S3Action{Operation: "download", FilePath: "/tmp/x"},
		&WebhookAction{URL: "https://hooks.example.com", Method: "GET", Payload: `{"a":1}`},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Actions
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
	assert.Equal(t, []Kind{KindEmail, KindS3, KindWebhook}, out.Kinds())

	err = json.Unmarshal([]byte(`[{"type":"email"},{"type":"nope"}]`), &out)
	assert.ErrorContains(t, err, "actions[1]")
}

func TestActions_CloneIndependent(t *testing.T) {
	t.Parallel()

	in := Actions{&SlackAction{Channel: "#ops"}}
	out := in.Clone()

	SetField(out[0], FieldChannel, "#dev")

	assert.Equal(t, "#ops", in[0].(*SlackAction).Channel)
	assert.Nil(t, Actions(nil).Clone())
}

func TestVariantValidationTags(t *testing.T) {
	t.Parallel()

	validate := validator.New(validator.WithRequiredStructEnabled())

	assert.NoError(t, validate.Struct(&EmailAction{To: "a@b.com", Subject: "Hi", Body: "Welcome!"}))
	assert.Error(t, validate.Struct(&EmailAction{To: "not-an-email", Subject: "Hi", Body: "x"}))
	assert.Error(t, validate.Struct(&WebhookAction{URL: "https://x.io", Method: "PUT"}))
	assert.NoError(t, validate.Struct(&WebhookAction{URL: "https://x.io", Method: "GET"}))
	assert.Error(t, validate.Struct(&DBAction{Query: "q", DBConfig: DBConfig{Host: "h"}}))
}
