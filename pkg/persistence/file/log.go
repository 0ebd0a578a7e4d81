package file

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/dukex/flowdeck/pkg/persistence"
	"github.com/google/uuid"
)

// LogRepository stores one JSON file per workflow log entry.
type LogRepository struct {
	mu  sync.RWMutex
	dir string
}

func NewLogRepository(root string) *LogRepository {
	return &LogRepository{dir: filepath.Join(root, "logs")}
}

// Append stores logs, assigning IDs and timestamps when missing.
func (lr *LogRepository) Append(_ context.Context, logs ...*models.WorkflowLog) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	for _, entry := range logs {
		if entry.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate log ID: %w", err)
			}

			entry.ID = id.String()
		}

		if err := validateID(entry.ID); err != nil {
			return fmt.Errorf("log %q: %w", entry.ID, err)
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}

		if err := writeJSON(lr.dir, entry.ID, entry); err != nil {
			return err
		}
	}

	return nil
}

func (lr *LogRepository) Recent(ctx context.Context, limit int) ([]*models.WorkflowLog, error) {
	logs, err := lr.load(ctx, func(*models.WorkflowLog) bool { return true })
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	return logs, nil
}

func (lr *LogRepository) ByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowLog, error) {
	return lr.load(ctx, func(l *models.WorkflowLog) bool { return l.WorkflowID == workflowID })
}

func (lr *LogRepository) load(_ context.Context, keep func(*models.WorkflowLog) bool) ([]*models.WorkflowLog, error) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	logs := make([]*models.WorkflowLog, 0)

	err := readAll(lr.dir, func(id string, body []byte) error {
		var entry models.WorkflowLog
		if err := json.Unmarshal(body, &entry); err != nil {
			return fmt.Errorf("failed to unmarshal log %s: %w", id, err)
		}

		if keep(&entry) {
			logs = append(logs, &entry)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(logs)

	return logs, nil
}

// sortNewestFirst orders by creation time, then by ID; V7 IDs grow with time.
func sortNewestFirst(logs []*models.WorkflowLog) {
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].CreatedAt.After(logs[j].CreatedAt)
		}

		return logs[i].ID > logs[j].ID
	})
}

var _ persistence.LogRepository = (*LogRepository)(nil)
