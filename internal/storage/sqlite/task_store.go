package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ai-browser-assistant-service/internal/storage"
)

type taskStore struct {
	db *sql.DB
}

// Insert stores a new task row.
func (s *taskStore) Insert(ctx context.Context, task storage.TaskRecord) error {
	var completedAt sql.NullString
	if task.CompletedAt != nil {
		completedAt = sql.NullString{String: task.CompletedAt.Format(timeFormat), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO browser_tasks (id, user_id, description, status, result, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.UserID,
		task.Description,
		string(task.Status),
		task.Result,
		task.CreatedAt.Format(timeFormat),
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// Update rewrites status, result and completion time by id.
func (s *taskStore) Update(ctx context.Context, task storage.TaskRecord) error {
	var completedAt sql.NullString
	if task.CompletedAt != nil {
		completedAt = sql.NullString{String: task.CompletedAt.Format(timeFormat), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE browser_tasks
		SET status = ?, result = ?, completed_at = ?
		WHERE id = ?
	`,
		string(task.Status),
		task.Result,
		completedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's tasks, newest first.
func (s *taskStore) ListByUser(ctx context.Context, userID string, limit int) ([]storage.TaskRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, description, status, result, created_at, completed_at
		FROM browser_tasks
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []storage.TaskRecord{}
	for rows.Next() {
		var (
			task                storage.TaskRecord
			result, completedAt sql.NullString
			createdAt           string
		)
		if err := rows.Scan(&task.ID, &task.UserID, &task.Description, (*string)(&task.Status), &result, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		task.Result = result.String
		if task.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at: %w", err)
		}
		if completedAt.Valid {
			done, err := time.Parse(timeFormat, completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("invalid completed_at: %w", err)
			}
			task.CompletedAt = &done
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}
