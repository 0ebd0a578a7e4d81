package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
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

// startAPI serves the workflow API on a random local port and returns its base URL.
func startAPI(t *testing.T) string {
	t.Helper()

	workflowService, err := services.NewWorkflow(file.NewPersistence(t.TempDir()), slog.Default())
	require.NoError(t, err)

	authService := services.NewAuth(slog.Default(), services.WithBcryptCost(bcrypt.MinCost))
	handlers := web.NewAPIHandlers(workflowService, authService)

	app := fiber.New()
	handlers.Routes(app.Group("/api"), web.RequireToken(authService))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	t.Cleanup(func() {
		_ = app.Shutdown()
	})

	return "http://" + ln.Addr().String() + "/api"
}

type harness struct {
	t         *testing.T
	apiURL    string
	tokenFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	return &harness{
		t:         t,
		apiURL:    startAPI(t),
		tokenFile: filepath.Join(t.TempDir(), "token.json"),
	}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()

	out := &bytes.Buffer{}
	a := newApp(strings.NewReader(stdin), out, io.Discard)

	argv := append([]string{"flowdeck", "--api-url", h.apiURL, "--token-file", h.tokenFile}, args...)
	err := a.command().Run(h.t.Context(), argv)

	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()

	_, err := h.run("", "register", "--email", "ada@example.com", "--password", "hunter22")
	require.NoError(h.t, err)

	out, err := h.run("", "login", "--email", "ada@example.com", "--password", "hunter22")
	require.NoError(h.t, err)
	require.Contains(h.t, out, "Logged in as ada@example.com")
}

func TestCLI_WorkflowLifecycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()

	out, err := h.run("", "create",
		"--name", "Welcome Email",
		"--trigger", "on user login",
		"--action", "email:to=a@b.com,subject=Hi,body=Welcome!",
		"--action", "slack:channel=#ops,message=new login",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Workflow created: ")

	out, err = h.run("", "list", "--search", "welcome", "--json")
	require.NoError(t, err)

	var list models.WorkflowList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Workflows, 1)

	id := list.Workflows[0].ID
	assert.Equal(t, []string{"email", "slack"}, list.Workflows[0].ActionTypes())

	out, err = h.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome Email")
	assert.Contains(t, out, "actions: email, slack")

	out, err = h.run("", "trigger", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Workflow triggered: "+id)
	assert.Contains(t, out, "email action queued by manual trigger")

	out, err = h.run("", "logs", "--workflow", id, "--json")
	require.NoError(t, err)

	var logs models.WorkflowLogList
	require.NoError(t, json.Unmarshal([]byte(out), &logs))
	assert.Len(t, logs.WorkflowLogs, 2)

	out, err = h.run("", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted workflow "+id)

	out, err = h.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No workflows found.")
}

func TestCLI_CreateFromFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()

	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Nightly export
trigger: every day at 2am
actions:
  - type: db
    query: select 1
    dbConfig: {host: db.internal, user: reporter, password: secret, db: shop}
`), 0o600))

	_, err := h.run("", "create", "--file", path, "--name", "Nightly export v2")
	require.NoError(t, err)

	out, err := h.run("", "list", "--json")
	require.NoError(t, err)

	var list models.WorkflowList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Workflows, 1)
	assert.Equal(t, "Nightly export v2", list.Workflows[0].Name)
	assert.JSONEq(t,
		`{"type":"db","query":"select 1","dbConfig":{"host":"db.internal","user":"reporter","password":"secret","db":"shop"}}`,
		string(list.Workflows[0].Actions[0]))
}

func TestCLI_EditSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login()

	script := strings.Join([]string{
		"name Cleanup",
		"trigger every sunday",
		"add",
		"type 0 s3",
		"set 0 filePath /tmp/old.csv",
		"submit",
	}, "\n")

	out, err := h.run(script, "edit")
	require.NoError(t, err)
	assert.Contains(t, out, "Workflow created.")

	out, err = h.run("", "list", "--search", "sunday", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleanup")
}

func TestCLI_RequiresLogin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.run("", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, err := h.run("", "create", "--name", "n", "--trigger", "t", "--action", "slack:channel=#a,message=b")
	require.Error(t, err)
	assert.Contains(t, out, "Failed to create workflow.")
}

func TestCLI_LoginReadsPasswordFromStdin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.run("hunter22\n", "register", "--email", "bob@example.com")
	require.NoError(t, err)

	out, err := h.run("hunter22\n", "login", "--email", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as bob@example.com")

	token, err := os.ReadFile(h.tokenFile)
	require.NoError(t, err)
	assert.Contains(t, string(token), `"token"`)

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
}

func TestCLI_OfflineCommands(t *testing.T) {
	t.Parallel()

	run := func(args ...string) (string, error) {
		out := &bytes.Buffer{}
		a := newApp(strings.NewReader(""), out, io.Discard)
		err := a.command().Run(t.Context(), append([]string{"flowdeck", "--token-file", filepath.Join(t.TempDir(), "t.json")}, args...))

		return out.String(), err
	}

	t.Run("kinds", func(t *testing.T) {
		out, err := run("kinds")
		require.NoError(t, err)
		assert.Contains(t, out, "webhook")
		assert.Contains(t, out, "dbConfig.password")
	})

	t.Run("dry run prints payload", func(t *testing.T) {
		out, err := run("create", "--dry-run", "--name", "n", "--trigger", "t", "--action", "webhook:url=https://x.io,method=GET")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"n","trigger":"t","actions":[{"type":"webhook","url":"https://x.io","method":"GET"}]}`, out)
	})

	t.Run("validation problems block submit", func(t *testing.T) {
		_, err := run("create", "--name", "n", "--action", "email:to=nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "trigger is required")
		assert.Contains(t, err.Error(), "actions[0].to must be a valid email address")
	})

	t.Run("bad action spec", func(t *testing.T) {
		_, err := run("create", "--name", "n", "--trigger", "t", "--action", "fax:to=1")
		require.Error(t, err)
	})

	t.Run("trigger needs an id", func(t *testing.T) {
		_, err := run("trigger")
		require.ErrorIs(t, err, errMissingID)
	})
}

func TestCLI_CreateWithUnexpectedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`["accepted"]`))
	}))
	t.Cleanup(server.Close)

	h := &harness{t: t, apiURL: server.URL, tokenFile: filepath.Join(t.TempDir(), "token.json")}

	out, err := h.run("", "create",
		"--name", "Notify",
		"--trigger", "nightly",
		"--action", "slack:channel=#ops,message=done",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Workflow created.")
	assert.NotContains(t, out, "Workflow created: ")
}
