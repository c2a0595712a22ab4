// Package storage defines the persistence contracts for the usage ledger
// and the task history.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Usage() UsageLedger
	Tasks() TaskStore
}

// UsageLedger manages per-user usage records. At most one record exists per
// user; updates are last-write-wins.
type UsageLedger interface {
	GetByUser(ctx context.Context, userID string) (*UsageRecord, error)
	Insert(ctx context.Context, record UsageRecord) error
	Update(ctx context.Context, record UsageRecord) error
}

// TaskStore manages the per-user task history.
type TaskStore interface {
	Insert(ctx context.Context, task TaskRecord) error
	Update(ctx context.Context, task TaskRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]TaskRecord, error)
}

// UsageRecord is one user's quota row.
type UsageRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TasksUsed    int       `json:"tasks_used"`
	LastTaskDate time.Time `json:"last_task_date"`
	ResetDate    time.Time `json:"reset_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// TaskStatus is the lifecycle state of a submitted task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// TaskRecord is one row of the task history.
type TaskRecord struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Result      string     `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
