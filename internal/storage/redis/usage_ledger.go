package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-browser-assistant-service/internal/storage"
)

type usageLedger struct {
	client *redis.Client
}

func usageKey(userID string) string {
	return fmt.Sprintf("assistant:usage:%s", userID)
}

// GetByUser retrieves the usage record for a user.
func (l *usageLedger) GetByUser(ctx context.Context, userID string) (*storage.UsageRecord, error) {
	data, err := l.client.HGetAll(ctx, usageKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return parseUsageRecord(data)
}

// Insert stores a new usage record. One hash per user; a second insert for
// the same user overwrites, which matches the at-most-one-record invariant.
func (l *usageLedger) Insert(ctx context.Context, record storage.UsageRecord) error {
	return l.write(ctx, record)
}

// Update stores the record as-is. Last write wins.
func (l *usageLedger) Update(ctx context.Context, record storage.UsageRecord) error {
	return l.write(ctx, record)
}

func (l *usageLedger) write(ctx context.Context, record storage.UsageRecord) error {
	return l.client.HSet(ctx, usageKey(record.UserID), map[string]interface{}{
		"id":             record.ID,
		"user_id":        record.UserID,
		"tasks_used":     record.TasksUsed,
		"last_task_date": record.LastTaskDate.Format(time.RFC3339Nano),
		"reset_date":     record.ResetDate.Format(time.RFC3339Nano),
		"created_at":     record.CreatedAt.Format(time.RFC3339Nano),
	}).Err()
}

func parseUsageRecord(data map[string]string) (*storage.UsageRecord, error) {
	tasksUsed, err := strconv.Atoi(data["tasks_used"])
	if err != nil {
		return nil, fmt.Errorf("invalid tasks_used: %w", err)
	}

	lastTask, err := time.Parse(time.RFC3339Nano, data["last_task_date"])
	if err != nil {
		return nil, fmt.Errorf("invalid last_task_date: %w", err)
	}

	resetDate, err := time.Parse(time.RFC3339Nano, data["reset_date"])
	if err != nil {
		return nil, fmt.Errorf("invalid reset_date: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}

	return &storage.UsageRecord{
		ID:           data["id"],
		UserID:       data["user_id"],
		TasksUsed:    tasksUsed,
		LastTaskDate: lastTask,
		ResetDate:    resetDate,
		CreatedAt:    createdAt,
	}, nil
}
