package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence/file"
	"github.com/dukex/flowdeck/pkg/services"
	"github.com/dukex/flowdeck/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const welcomeBody = `{"name":"Welcome Email","trigger":"on user login","actions":[` +
	`{"type":"email","to":"a@b.com","subject":"Hi","body":"Welcome!"},` +
	`{"type":"slack","channel":"#ops","message":"new login"}]}`

func setupTestApp(t *testing.T, withAuth bool) (*fiber.App, *services.Auth) {
	t.Helper()

	workflowService, err := services.NewWorkflow(file.NewPersistence(t.TempDir()), nil)
	require.NoError(t, err)

	authService := services.NewAuth(nil, services.WithBcryptCost(bcrypt.MinCost))
	handlers := web.NewAPIHandlers(workflowService, authService)

	var guard fiber.Handler
	if withAuth {
		guard = web.RequireToken(authService)
	}

	app := fiber.New()
	handlers.Routes(app, guard)
	app.Get("/health", handlers.HealthCheck)

	return app, authService
}

func do(t *testing.T, app *fiber.App, method, target, body, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, out
}

func createWorkflow(t *testing.T, app *fiber.App, body, token string) *models.Workflow {
	t.Helper()

	status, out := do(t, app, http.MethodPost, "/workflows", body, token)
	require.Equal(t, http.StatusCreated, status, string(out))

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(out, &workflow))

	return &workflow
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedType   string
		expectedDetail string
	}{
		{
			name:           "successful creation",
			body:           welcomeBody,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid JSON",
			body:           "invalid-json",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
			expectedDetail: "not valid JSON",
		},
		{
			name:           "unknown action type",
			body:           `{"name":"n","trigger":"t","actions":[{"type":"fax"}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "missing trigger",
			body:           `{"name":"n","trigger":"","actions":[]}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
			expectedDetail: "trigger is required",
		},
		{
			name:           "empty db config key",
			body:           `{"name":"n","trigger":"t","actions":[{"type":"db","query":"q","dbConfig":{"host":"h","user":"","password":"p","db":"d"}}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
			expectedDetail: "actions[0].dbConfig.user is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t, false)

			status, body := do(t, app, http.MethodPost, "/workflows", tt.body, "")
			assert.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedStatus == http.StatusCreated {
				var workflow models.Workflow
				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.NotEmpty(t, workflow.ID)
				assert.Equal(t, "Welcome Email", workflow.Name)
				assert.Equal(t, []string{"email", "slack"}, workflow.ActionTypes())

				return
			}

			var problem map[string]any
			require.NoError(t, json.Unmarshal(body, &problem))
			assert.Equal(t, tt.expectedType, problem["type"])
			assert.Equal(t, "/workflows", problem["instance"])

			if tt.expectedDetail != "" {
				assert.Contains(t, problem["detail"], tt.expectedDetail)
			}
		})
	}
}

func TestAPIHandlers_ListAndSearch(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, false)

	createWorkflow(t, app, welcomeBody, "")
	createWorkflow(t, app, `{"name":"Nightly export","trigger":"every day at 2am","actions":[]}`, "")

	status, body := do(t, app, http.MethodGet, "/workflows", "", "")
	require.Equal(t, http.StatusOK, status)

	var list models.WorkflowList
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Workflows, 2)

	status, body = do(t, app, http.MethodGet, "/workflows?searchQuery=nightly", "", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Workflows, 1)
	assert.Equal(t, "Nightly export", list.Workflows[0].Name)
}

func TestAPIHandlers_TriggerLogsDelete(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, false)
	workflow := createWorkflow(t, app, welcomeBody, "")

	status, body := do(t, app, http.MethodPost, "/trigger/"+workflow.ID, "{}", "")
	require.Equal(t, http.StatusAccepted, status, string(body))

	var triggered web.TriggerResponse
	require.NoError(t, json.Unmarshal(body, &triggered))
	require.Len(t, triggered.WorkflowLogs, 2)
	assert.Equal(t, models.LogStatusQueued, triggered.WorkflowLogs[0].Status)

	var logs models.WorkflowLogList

	status, body = do(t, app, http.MethodGet, "/workflows/logs/"+workflow.ID, "", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Len(t, logs.WorkflowLogs, 2)

	status, body = do(t, app, http.MethodGet, "/workflows/logs/all", "", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Len(t, logs.WorkflowLogs, 2)

	status, _ = do(t, app, http.MethodDelete, "/workflows/"+workflow.ID, "", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = do(t, app, http.MethodDelete, "/workflows/"+workflow.ID, "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "workflow_not_found")

	status, _ = do(t, app, http.MethodPost, "/trigger/missing", "{}", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_AuthFlow(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, true)
	creds := `{"email":"ada@example.com","password":"hunter22"}`

	status, body := do(t, app, http.MethodGet, "/workflows", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "missing bearer token")

	status, _ = do(t, app, http.MethodGet, "/workflows", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, http.MethodPost, "/auth/register", creds, "")
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, app, http.MethodPost, "/auth/register", creds, "")
	assert.Equal(t, http.StatusConflict, status)

	status, _ = do(t, app, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"nope-nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = do(t, app, http.MethodPost, "/auth/login", creds, "")
	require.Equal(t, http.StatusOK, status)

	var token models.TokenResponse
	require.NoError(t, json.Unmarshal(body, &token))
	require.NotEmpty(t, token.Token)

	workflow := createWorkflow(t, app, welcomeBody, token.Token)
	assert.NotEmpty(t, workflow.UserID)

	status, body = do(t, app, http.MethodGet, "/workflows", "", token.Token)
	require.Equal(t, http.StatusOK, status)

	var list models.WorkflowList
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Workflows, 1)
}

func TestAPIHandlers_OtherUsersCannotSeeWorkflows(t *testing.T) {
	t.Parallel()

	app, authService := setupTestApp(t, true)

	login := func(email string) string {
		creds := models.Credentials{Email: email, Password: "hunter22"}
		require.NoError(t, authService.Register(t.Context(), creds))

		token, err := authService.Login(t.Context(), creds)
		require.NoError(t, err)

		return token
	}

	alice := login("alice@example.com")
	bob := login("bob@example.com")

	workflow := createWorkflow(t, app, welcomeBody, alice)

	status, _ := do(t, app, http.MethodPost, "/trigger/"+workflow.ID, "{}", bob)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := do(t, app, http.MethodGet, "/workflows", "", bob)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"workflows":[]}`, string(body))
}

func TestAPIHandlers_Kinds(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, true)

	status, body := do(t, app, http.MethodGet, "/kinds", "", "")
	require.Equal(t, http.StatusOK, status)

	var kinds web.KindsResponse
	require.NoError(t, json.Unmarshal(body, &kinds))
	require.Len(t, kinds.Kinds, len(models.Kinds()))
	assert.Equal(t, models.KindEmail, kinds.Kinds[0].Type)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, false)

	status, body := do(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"healthy"`)
}
