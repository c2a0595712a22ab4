package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-browser-assistant-service/internal/storage"
)

type taskStore struct {
	client *redis.Client
}

func taskKey(id string) string {
	return fmt.Sprintf("assistant:task:%s", id)
}

func userTasksKey(userID string) string {
	return fmt.Sprintf("assistant:tasks:user:%s", userID)
}

// Insert stores a task and prepends it to the user's history list.
func (s *taskStore) Insert(ctx context.Context, task storage.TaskRecord) error {
	if err := s.write(ctx, task); err != nil {
		return err
	}
	return s.client.LPush(ctx, userTasksKey(task.UserID), task.ID).Err()
}

// Update rewrites a task hash in place.
func (s *taskStore) Update(ctx context.Context, task storage.TaskRecord) error {
	exists, err := s.client.Exists(ctx, taskKey(task.ID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return storage.ErrNotFound
	}
	return s.write(ctx, task)
}

// ListByUser returns the user's tasks, newest first.
func (s *taskStore) ListByUser(ctx context.Context, userID string, limit int) ([]storage.TaskRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	ids, err := s.client.LRange(ctx, userTasksKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []storage.TaskRecord{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, taskKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	tasks := make([]storage.TaskRecord, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		task, err := parseTaskRecord(data)
		if err != nil {
			continue
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (s *taskStore) write(ctx context.Context, task storage.TaskRecord) error {
	fields := map[string]interface{}{
		"id":          task.ID,
		"user_id":     task.UserID,
		"description": task.Description,
		"status":      string(task.Status),
		"result":      task.Result,
		"created_at":  task.CreatedAt.Format(time.RFC3339Nano),
	}
	if task.CompletedAt != nil {
		fields["completed_at"] = task.CompletedAt.Format(time.RFC3339Nano)
	}
	return s.client.HSet(ctx, taskKey(task.ID), fields).Err()
}

func parseTaskRecord(data map[string]string) (*storage.TaskRecord, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}

	task := &storage.TaskRecord{
		ID:          data["id"],
		UserID:      data["user_id"],
		Description: data["description"],
		Status:      storage.TaskStatus(data["status"]),
		Result:      data["result"],
		CreatedAt:   createdAt,
	}

	if v, ok := data["completed_at"]; ok && v != "" {
		completedAt, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at: %w", err)
		}
		task.CompletedAt = &completedAt
	}

	return task, nil
}
