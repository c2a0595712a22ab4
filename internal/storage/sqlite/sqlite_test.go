package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ai-browser-assistant-service/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestUsageLedger_InsertAndGet(t *testing.T) {
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

	got, err := ledger.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got.ID != "rec-1" {
		t.Errorf("Expected ID rec-1, got %s", got.ID)
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

func TestUsageLedger_Update(t *testing.T) {
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
	if err := ledger.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := ledger.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got.TasksUsed != 1 {
		t.Errorf("Expected TasksUsed 1, got %d", got.TasksUsed)
	}
}

func TestUsageLedger_UpdateMissing_ReturnsNotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.Usage().Update(context.Background(), storage.UsageRecord{
		ID:     "ghost",
		UserID: "user-1",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestTaskStore_InsertUpdateList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	tasks := store.Tasks()

	base := time.Now().UTC()
	for i, desc := range []string{"compare laptop prices", "find a recipe"} {
		task := storage.TaskRecord{
			ID:          "task-" + string(rune('a'+i)),
			UserID:      "user-1",
			Description: desc,
			Status:      storage.TaskProcessing,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		if err := tasks.Insert(ctx, task); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	completed := base.Add(time.Minute)
	if err := tasks.Update(ctx, storage.TaskRecord{
		ID:          "task-b",
		UserID:      "user-1",
		Status:      storage.TaskCompleted,
		Result:      "found three recipes",
		CompletedAt: &completed,
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := tasks.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(got))
	}
	if got[0].Description != "find a recipe" {
		t.Errorf("Expected newest task first, got %q", got[0].Description)
	}
	if got[0].Status != storage.TaskCompleted {
		t.Errorf("Expected status completed, got %s", got[0].Status)
	}
	if got[0].CompletedAt == nil {
		t.Error("Expected CompletedAt to be set")
	}
}

func TestTaskStore_ListOtherUser_Empty(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Tasks().Insert(ctx, storage.TaskRecord{
		ID:          "task-1",
		UserID:      "user-1",
		Description: "search the web",
		Status:      storage.TaskPending,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Tasks().ListByUser(ctx, "user-2", 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no tasks for other user, got %d", len(got))
	}
}
