package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ai-browser-assistant-service/internal/storage"
)

// Timestamps are stored as RFC3339Nano strings; modernc.org/sqlite does not
// persist time.Time in a format SQLite's date functions understand.
const timeFormat = time.RFC3339Nano

type usageLedger struct {
	db *sql.DB
}

// GetByUser retrieves the usage record for a user.
func (l *usageLedger) GetByUser(ctx context.Context, userID string) (*storage.UsageRecord, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, user_id, tasks_used, last_task_date, reset_date, created_at
		FROM usage_tracking
		WHERE user_id = ?
	`, userID)

	var (
		record                         storage.UsageRecord
		lastTask, resetDate, createdAt string
	)
	err := row.Scan(&record.ID, &record.UserID, &record.TasksUsed, &lastTask, &resetDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query usage record: %w", err)
	}

	if record.LastTaskDate, err = time.Parse(timeFormat, lastTask); err != nil {
		return nil, fmt.Errorf("invalid last_task_date: %w", err)
	}
	if record.ResetDate, err = time.Parse(timeFormat, resetDate); err != nil {
		return nil, fmt.Errorf("invalid reset_date: %w", err)
	}
	if record.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}

	return &record, nil
}

// Insert stores a new usage record.
func (l *usageLedger) Insert(ctx context.Context, record storage.UsageRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO usage_tracking (id, user_id, tasks_used, last_task_date, reset_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.UserID,
		record.TasksUsed,
		record.LastTaskDate.Format(timeFormat),
		record.ResetDate.Format(timeFormat),
		record.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a usage record by id. Last write wins.
func (l *usageLedger) Update(ctx context.Context, record storage.UsageRecord) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE usage_tracking
		SET tasks_used = ?, last_task_date = ?, reset_date = ?
		WHERE id = ?
	`,
		record.TasksUsed,
		record.LastTaskDate.Format(timeFormat),
		record.ResetDate.Format(timeFormat),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update usage record: %w", err)
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
