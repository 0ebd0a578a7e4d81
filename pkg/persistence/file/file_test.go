package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/dukex/flowdeck/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/tmp/test", NewPersistence("/tmp/test").root)
	assert.Equal(t, "/tmp/test", NewPersistence("file:///tmp/test").root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.ErrorIs(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()), os.ErrNotExist)
	assert.NoError(t, NewPersistence(t.TempDir()).Close(t.Context()))
}

func newWorkflow(name, trigger string, createdAt time.Time) *models.Workflow {
	return testutil.CreateTestWorkflow(
		testutil.WithName(name, trigger),
		testutil.WithCreatedAt(createdAt),
	)
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	t.Parallel()

	testDir := t.TempDir()
	repo := NewPersistence(testDir).WorkflowRepository()

	workflow := newWorkflow("Welcome Email", "on user login", time.Time{})
	require.NoError(t, repo.Save(t.Context(), workflow))

	require.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.CreatedAt.IsZero())
	assert.FileExists(t, filepath.Join(testDir, "workflows", workflow.ID+".json"))

	got, err := repo.GetByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome Email", got.Name)
	assert.Equal(t, []string{"email"}, got.ActionTypes())
}

func TestWorkflowRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())

	_, err := repo.GetByID(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = repo.Delete(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_RejectsUnsafeIDs(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())

	for _, id := range []string{"../etc/passwd", "a/b", `a\b`, ".."} {
		_, err := repo.GetByID(t.Context(), id)
		assert.True(t, persistence.IsInvalidID(err), id)

		assert.True(t, persistence.IsInvalidID(repo.Delete(t.Context(), id)), id)
		assert.True(t, persistence.IsInvalidID(repo.Save(t.Context(), &models.Workflow{ID: id})), id)
	}
}

func TestWorkflowRepository_ListSearchAndOrder(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(t.Context(), newWorkflow("Welcome Email", "on user login", base)))
	require.NoError(t, repo.Save(t.Context(), newWorkflow("Nightly export", "every day at 2am", base.Add(time.Hour))))
	require.NoError(t, repo.Save(t.Context(), newWorkflow("Order alert", "on new ORDER", base.Add(2*time.Hour))))

	all, err := repo.List(t.Context(), persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Order alert", all[0].Name)
	assert.Equal(t, "Welcome Email", all[2].Name)

	tests := []struct {
		search string
		want   []string
	}{
		{"welcome", []string{"Welcome Email"}},
		{"  ORDER ", []string{"Order alert"}},
		{"on ", []string{"Order alert", "Welcome Email"}},
		{"nothing", []string{}},
	}

	for _, tt := range tests {
		got, err := repo.List(t.Context(), persistence.ListWorkflowsOptions{Search: tt.search})
		require.NoError(t, err)

		names := make([]string, 0, len(got))
		for _, w := range got {
			names = append(names, w.Name)
		}

		assert.Equal(t, tt.want, names, tt.search)
	}
}

func TestWorkflowRepository_ListByUser(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())

	mine := newWorkflow("Mine", "t", time.Time{})
	mine.UserID = "u1"
	theirs := newWorkflow("Theirs", "t", time.Time{})
	theirs.UserID = "u2"

	require.NoError(t, repo.Save(t.Context(), mine))
	require.NoError(t, repo.Save(t.Context(), theirs))

	got, err := repo.List(t.Context(), persistence.ListWorkflowsOptions{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mine", got[0].Name)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())
	workflow := newWorkflow("Temp", "t", time.Time{})
	require.NoError(t, repo.Save(t.Context(), workflow))

	require.NoError(t, repo.Delete(t.Context(), workflow.ID))

	_, err := repo.GetByID(t.Context(), workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestLogRepository(t *testing.T) {
	t.Parallel()

	repo := NewLogRepository(t.TempDir())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	empty, err := repo.Recent(t.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.Append(t.Context(),
		&models.WorkflowLog{WorkflowID: "wf-1", ActionType: "email", Status: models.LogStatusQueued, CreatedAt: base},
		&models.WorkflowLog{WorkflowID: "wf-2", ActionType: "db", Status: models.LogStatusQueued, CreatedAt: base.Add(time.Minute)},
		&models.WorkflowLog{WorkflowID: "wf-1", ActionType: "slack", Status: models.LogStatusQueued, CreatedAt: base.Add(2 * time.Minute)},
	))

	recent, err := repo.Recent(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "slack", recent[0].ActionType)
	assert.Equal(t, "db", recent[1].ActionType)

	byWorkflow, err := repo.ByWorkflow(t.Context(), "wf-1")
	require.NoError(t, err)
	require.Len(t, byWorkflow, 2)
	assert.Equal(t, "slack", byWorkflow[0].ActionType)
	assert.Equal(t, "email", byWorkflow[1].ActionType)
	assert.NotEmpty(t, byWorkflow[0].ID)
}

func TestLogRepository_SameInstantKeepsAppendOrder(t *testing.T) {
	t.Parallel()

	repo := NewLogRepository(t.TempDir())
	now := time.Now().UTC()

	require.NoError(t, repo.Append(t.Context(),
		&models.WorkflowLog{WorkflowID: "wf", ActionType: "first", CreatedAt: now},
		&models.WorkflowLog{WorkflowID: "wf", ActionType: "second", CreatedAt: now},
	))

	logs, err := repo.ByWorkflow(t.Context(), "wf")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].ActionType)
}
