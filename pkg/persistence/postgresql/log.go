package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowdeck/pkg/models"
	"github.com/google/uuid"
)

// LogRepository handles workflow log database operations.
type LogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewLogRepository(db *sql.DB, logger *slog.Logger) *LogRepository {
	return &LogRepository{db: db, logger: logger}
}

// Append inserts logs in one transaction.
func (r *LogRepository) Append(ctx context.Context, logs ...*models.WorkflowLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT INTO workflow_logs (id, workflow_id, workflow_name, action_type, status, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, entry := range logs {
		if entry.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				_ = tx.Rollback()

				return fmt.Errorf("failed to generate log ID: %w", err)
			}

			entry.ID = id.String()
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}

		_, err = tx.ExecContext(ctx, query,
			entry.ID,
			entry.WorkflowID,
			entry.WorkflowName,
			entry.ActionType,
			entry.Status,
			entry.Message,
			entry.CreatedAt,
		)
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("failed to insert log %s: %w", entry.ID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit logs: %w", err)
	}

	return nil
}

// Recent returns the newest logs; a limit of zero or less returns all of them.
func (r *LogRepository) Recent(ctx context.Context, limit int) ([]*models.WorkflowLog, error) {
	var rowLimit any
	if limit > 0 {
		rowLimit = limit
	}

	return r.query(ctx, `
		SELECT id, workflow_id, workflow_name, action_type, status, message, created_at
		FROM workflow_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, rowLimit)
}

func (r *LogRepository) ByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowLog, error) {
	return r.query(ctx, `
		SELECT id, workflow_id, workflow_name, action_type, status, message, created_at
		FROM workflow_logs
		WHERE workflow_id = $1
		ORDER BY created_at DESC, id DESC
	`, workflowID)
}

func (r *LogRepository) query(ctx context.Context, query string, args ...any) ([]*models.WorkflowLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow logs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	logs := make([]*models.WorkflowLog, 0)

	for rows.Next() {
		var entry models.WorkflowLog

		err := rows.Scan(
			&entry.ID,
			&entry.WorkflowID,
			&entry.WorkflowName,
			&entry.ActionType,
			&entry.Status,
			&entry.Message,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow log: %w", err)
		}

		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflow logs: %w", err)
	}

	return logs, nil
}
