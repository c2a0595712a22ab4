package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ai-browser-assistant-service/internal/accounts"
	"ai-browser-assistant-service/internal/storage"
)

type memLedger struct {
	records map[string]storage.UsageRecord
	failOp  string
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string]storage.UsageRecord)}
}

func (m *memLedger) GetByUser(_ context.Context, userID string) (*storage.UsageRecord, error) {
	if m.failOp == "get" {
		return nil, errors.New("ledger unavailable")
	}
	record, ok := m.records[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := record
	return &out, nil
}

func (m *memLedger) Insert(_ context.Context, record storage.UsageRecord) error {
	if m.failOp == "insert" {
		return errors.New("ledger unavailable")
	}
	m.records[record.UserID] = record
	return nil
}

func (m *memLedger) Update(_ context.Context, record storage.UsageRecord) error {
	if m.failOp == "update" {
		return errors.New("ledger unavailable")
	}
	if _, ok := m.records[record.UserID]; !ok {
		return storage.ErrNotFound
	}
	m.records[record.UserID] = record
	return nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setupTracker(t *testing.T) (*Tracker, *memLedger, *testClock) {
	t.Helper()

	ledger := newMemLedger()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tracker := NewTracker(ledger, Config{
		FreeTierLimit: 1,
		Window:        72 * time.Hour,
		Now:           clock.Now,
	}, zerolog.Nop())
	return tracker, ledger, clock
}

var freeAccount = accounts.Account{UserID: "user-1", Email: "user@example.com"}

var premiumAccount = accounts.Account{UserID: "user-2", Email: "pro@example.com", IsPremium: true}

func TestTracker_NewUserScenario(t *testing.T) {
	tracker, ledger, _ := setupTracker(t)

	record, err := tracker.Load(context.Background(), freeAccount.UserID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if record.TasksUsed != 0 {
		t.Fatalf("expected fresh record with 0 tasks used, got %d", record.TasksUsed)
	}
	if !tracker.CanUseTask(freeAccount) {
		t.Fatal("expected fresh free account to be allowed a task")
	}

	ok, err := tracker.IncrementUsage(context.Background(), freeAccount)
	if err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first increment to succeed")
	}
	if got := ledger.records[freeAccount.UserID].TasksUsed; got != 1 {
		t.Fatalf("expected 1 task used persisted, got %d", got)
	}

	if tracker.CanUseTask(freeAccount) {
		t.Fatal("expected account at limit to be denied")
	}

	ok, err = tracker.IncrementUsage(context.Background(), freeAccount)
	if err != nil {
		t.Fatalf("IncrementUsage at limit returned error: %v", err)
	}
	if ok {
		t.Fatal("expected increment at limit to be rejected")
	}
	if got := ledger.records[freeAccount.UserID].TasksUsed; got != 1 {
		t.Fatalf("rejected increment must not mutate the record, got %d tasks used", got)
	}
}

func TestTracker_ResetAfterWindowElapsed(t *testing.T) {
	tracker, ledger, clock := setupTracker(t)

	if _, err := tracker.Load(context.Background(), freeAccount.UserID); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok, _ := tracker.IncrementUsage(context.Background(), freeAccount); !ok {
		t.Fatal("expected first increment to succeed")
	}

	clock.Advance(72 * time.Hour)

	if !tracker.CanUseTask(freeAccount) {
		t.Fatal("expected elapsed window to restore the allowance")
	}

	record, err := tracker.Load(context.Background(), freeAccount.UserID)
	if err != nil {
		t.Fatalf("Load after window failed: %v", err)
	}
	if record.TasksUsed != 0 {
		t.Fatalf("expected reset record, got %d tasks used", record.TasksUsed)
	}
	wantReset := clock.Now().Add(72 * time.Hour)
	if !record.ResetDate.Equal(wantReset) {
		t.Fatalf("expected reset date %v, got %v", wantReset, record.ResetDate)
	}
	if got := ledger.records[freeAccount.UserID].TasksUsed; got != 0 {
		t.Fatalf("expected reset to be persisted, ledger has %d tasks used", got)
	}
}

func TestTracker_IncrementAfterElapsedWindowResetsFirst(t *testing.T) {
	tracker, ledger, clock := setupTracker(t)

	if _, err := tracker.Load(context.Background(), freeAccount.UserID); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok, _ := tracker.IncrementUsage(context.Background(), freeAccount); !ok {
		t.Fatal("expected first increment to succeed")
	}

	clock.Advance(100 * time.Hour)

	ok, err := tracker.IncrementUsage(context.Background(), freeAccount)
	if err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}
	if !ok {
		t.Fatal("expected increment after elapsed window to succeed")
	}

	persisted := ledger.records[freeAccount.UserID]
	if persisted.TasksUsed != 1 {
		t.Fatalf("expected reset-then-increment to persist 1 task used, got %d", persisted.TasksUsed)
	}
	wantReset := clock.Now().Add(72 * time.Hour)
	if !persisted.ResetDate.Equal(wantReset) {
		t.Fatalf("expected fresh reset date %v, got %v", wantReset, persisted.ResetDate)
	}
	if !persisted.LastTaskDate.Equal(clock.Now()) {
		t.Fatalf("expected last task date %v, got %v", clock.Now(), persisted.LastTaskDate)
	}
}

func TestTracker_PremiumBypassesLedger(t *testing.T) {
	tracker, ledger, _ := setupTracker(t)

	if !tracker.CanUseTask(premiumAccount) {
		t.Fatal("expected premium account to be allowed without a loaded record")
	}

	ok, err := tracker.IncrementUsage(context.Background(), premiumAccount)
	if err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}
	if !ok {
		t.Fatal("expected premium increment to succeed")
	}
	if len(ledger.records) != 0 {
		t.Fatalf("premium usage must not touch the ledger, found %d records", len(ledger.records))
	}

	if got := tracker.RemainingTasks(premiumAccount); got != UnlimitedTasks {
		t.Fatalf("expected unlimited sentinel %d, got %d", UnlimitedTasks, got)
	}
	if got := tracker.TimeUntilReset(premiumAccount); got != "" {
		t.Fatalf("expected empty reset string for premium, got %q", got)
	}
}

func TestTracker_LoadIsIdempotent(t *testing.T) {
	tracker, _, _ := setupTracker(t)

	first, err := tracker.Load(context.Background(), freeAccount.UserID)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := tracker.Load(context.Background(), freeAccount.UserID)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same record across loads, got %q and %q", first.ID, second.ID)
	}
	if first.TasksUsed != second.TasksUsed || !first.ResetDate.Equal(second.ResetDate) {
		t.Fatal("expected repeated load within the window to leave the record unchanged")
	}
}

func TestTracker_FailClosedWhenNotLoaded(t *testing.T) {
	tracker, _, _ := setupTracker(t)

	if tracker.CanUseTask(freeAccount) {
		t.Fatal("expected denial with no record loaded")
	}
	ok, err := tracker.IncrementUsage(context.Background(), freeAccount)
	if err != nil {
		t.Fatalf("IncrementUsage returned error: %v", err)
	}
	if ok {
		t.Fatal("expected increment to be rejected with no record loaded")
	}
	if got := tracker.RemainingTasks(freeAccount); got != 0 {
		t.Fatalf("expected 0 remaining with no record loaded, got %d", got)
	}
	if got := tracker.TimeUntilReset(freeAccount); got != "" {
		t.Fatalf("expected empty reset string with no record loaded, got %q", got)
	}
}

func TestTracker_FailClosedOnPersistenceError(t *testing.T) {
	tracker, ledger, _ := setupTracker(t)

	ledger.failOp = "get"
	_, err := tracker.Load(context.Background(), freeAccount.UserID)
	if err == nil {
		t.Fatal("expected Load to surface the ledger failure")
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %T", err)
	}
	if tracker.CanUseTask(freeAccount) {
		t.Fatal("expected denial after a failed load")
	}

	ledger.failOp = ""
	if _, err := tracker.Load(context.Background(), freeAccount.UserID); err != nil {
		t.Fatalf("Load after recovery failed: %v", err)
	}

	ledger.failOp = "update"
	ok, err := tracker.IncrementUsage(context.Background(), freeAccount)
	if err == nil {
		t.Fatal("expected increment to surface the update failure")
	}
	if ok {
		t.Fatal("expected increment to report failure on persistence error")
	}
}

func TestTracker_RemainingTasks(t *testing.T) {
	ledger := newMemLedger()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tracker := NewTracker(ledger, Config{
		FreeTierLimit: 3,
		Window:        72 * time.Hour,
		Now:           clock.Now,
	}, zerolog.Nop())

	if _, err := tracker.Load(context.Background(), freeAccount.UserID); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := tracker.RemainingTasks(freeAccount); got != 3 {
		t.Fatalf("expected 3 remaining, got %d", got)
	}

	for i := 0; i < 3; i++ {
		if ok, err := tracker.IncrementUsage(context.Background(), freeAccount); !ok || err != nil {
			t.Fatalf("increment %d failed: ok=%v err=%v", i, ok, err)
		}
	}
	if got := tracker.RemainingTasks(freeAccount); got != 0 {
		t.Fatalf("expected 0 remaining at the limit, got %d", got)
	}

	clock.Advance(73 * time.Hour)
	if got := tracker.RemainingTasks(freeAccount); got != 3 {
		t.Fatalf("expected remaining tasks restored after the window, got %d", got)
	}
}

func TestTracker_TimeUntilReset(t *testing.T) {
	tracker, _, clock := setupTracker(t)

	if _, err := tracker.Load(context.Background(), freeAccount.UserID); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name    string
		advance time.Duration
		want    string
	}{
		{"full window remaining", 0, "3 days 0 hours"},
		{"days and hours", 26 * time.Hour, "1 day 22 hours"},
		{"single hour", 71 * time.Hour, "1 hour"},
		{"hours only", 60 * time.Hour, "12 hours"},
		{"due now", 72 * time.Hour, "Available now"},
		{"past due", 80 * time.Hour, "Available now"},
	}

	start := clock.now
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = start.Add(tt.advance)
			if got := tracker.TimeUntilReset(freeAccount); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
