package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"ai-browser-assistant-service/internal/config"
	"ai-browser-assistant-service/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		Addr:         mr.Addr(),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestUsageLedger_InsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ledger := store.Usage()

	now := time.Now().UTC().Truncate(time.Millisecond)
	record := storage.UsageRecord{
		ID:           "rec-1",
		UserID:       "user-1",
		TasksUsed:    0,
		LastTaskDate: now,
		ResetDate:    now.Add(72 * time.Hour),
		CreatedAt:    now,
	}

	if err := ledger.Insert(ctx, record); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := ledger.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}

	if got.ID != record.ID {
		t.Errorf("Expected ID %s, got %s", record.ID, got.ID)
	}
	if got.TasksUsed != 0 {
		t.Errorf("Expected TasksUsed 0, got %d", got.TasksUsed)
	}
	if !got.ResetDate.Equal(record.ResetDate) {
		t.Errorf("Expected ResetDate %v, got %v", record.ResetDate, got.ResetDate)
	}
}

func TestUsageLedger_GetMissing_ReturnsNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Usage().GetByUser(context.Background(), "nobody")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUsageLedger_Update_LastWriteWins(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ledger := store.Usage()

	now := time.Now().UTC()
	record := storage.UsageRecord{
		ID:           "rec-1",
		UserID:       "user-1",
		TasksUsed:    0,
		LastTaskDate: now,
		ResetDate:    now.Add(72 * time.Hour),
		CreatedAt:    now,
	}
	if err := ledger.Insert(ctx, record); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	record.TasksUsed = 1
	record.LastTaskDate = now.Add(time.Minute)
	if err := ledger.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := ledger.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got.TasksUsed != 1 {
		t.Errorf("Expected TasksUsed 1 after update, got %d", got.TasksUsed)
	}
}

func TestTaskStore_InsertAndList_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	tasks := store.Tasks()

	base := time.Now().UTC()
	for i, desc := range []string{"first task", "second task", "third task"} {
		task := storage.TaskRecord{
			ID:          "task-" + desc[:5] + string(rune('a'+i)),
			UserID:      "user-1",
			Description: desc,
			Status:      storage.TaskPending,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		if err := tasks.Insert(ctx, task); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := tasks.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(got))
	}
	if got[0].Description != "third task" {
		t.Errorf("Expected newest task first, got %q", got[0].Description)
	}
	if got[2].Description != "first task" {
		t.Errorf("Expected oldest task last, got %q", got[2].Description)
	}
}

func TestTaskStore_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	tasks := store.Tasks()

	now := time.Now().UTC()
	task := storage.TaskRecord{
		ID:          "task-1",
		UserID:      "user-1",
		Description: "book a flight",
		Status:      storage.TaskProcessing,
		CreatedAt:   now,
	}
	if err := tasks.Insert(ctx, task); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	completed := now.Add(time.Minute)
	task.Status = storage.TaskCompleted
	task.Result = "flight booked"
	task.CompletedAt = &completed
	if err := tasks.Update(ctx, task); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := tasks.ListByUser(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(got))
	}
	if got[0].Status != storage.TaskCompleted {
		t.Errorf("Expected status completed, got %s", got[0].Status)
	}
	if got[0].CompletedAt == nil {
		t.Error("Expected CompletedAt to be set")
	}
}

func TestTaskStore_UpdateMissing_ReturnsNotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.Tasks().Update(context.Background(), storage.TaskRecord{
		ID:     "ghost",
		UserID: "user-1",
		Status: storage.TaskCompleted,
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
