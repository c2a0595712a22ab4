// Package quota implements the usage quota state machine: a rolling
// time-window task allowance per free-tier user, with premium bypass.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-browser-assistant-service/internal/accounts"
	"ai-browser-assistant-service/internal/observability/metrics"
	"ai-browser-assistant-service/internal/storage"
)

const (
	// DefaultFreeTierLimit is the number of tasks a free account may submit
	// per quota window.
	DefaultFreeTierLimit = 1

	// DefaultWindow is the rolling quota window.
	DefaultWindow = 72 * time.Hour

	// UnlimitedTasks is the remaining-tasks sentinel for premium accounts.
	UnlimitedTasks = -1
)

// Config holds tracker configuration.
type Config struct {
	FreeTierLimit int
	Window        time.Duration

	// Now supplies the current time for every window comparison. Tests
	// inject a fixed clock here; comparison logic never reads the system
	// clock directly.
	Now func() time.Time
}

// Tracker decides whether a new task may be submitted and maintains the
// rolling quota window. One tracker serves the single active user session;
// the persisted record is authoritative and last write wins.
type Tracker struct {
	ledger  storage.UsageLedger
	limit   int
	window  time.Duration
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	record *storage.UsageRecord // nil until Load succeeds
}

// NewTracker creates a new usage tracker.
func NewTracker(ledger storage.UsageLedger, cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.FreeTierLimit <= 0 {
		cfg.FreeTierLimit = DefaultFreeTierLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Tracker{
		ledger:  ledger,
		limit:   cfg.FreeTierLimit,
		window:  cfg.Window,
		now:     cfg.Now,
		logger:  logger.With().Str("component", "usage-tracker").Logger(),
		metrics: metrics.DefaultMetrics,
	}
}

// Load fetches the user's usage record, creating it lazily on first use and
// resetting it if the window has elapsed. The returned record is a copy of
// the cached state.
func (t *Tracker) Load(ctx context.Context, userID string) (*storage.UsageRecord, error) {
	now := t.now()

	record, err := t.ledger.GetByUser(ctx, userID)
	switch {
	case err == storage.ErrNotFound:
		record = &storage.UsageRecord{
			ID:           uuid.NewString(),
			UserID:       userID,
			TasksUsed:    0,
			LastTaskDate: now,
			ResetDate:    now.Add(t.window),
			CreatedAt:    now,
		}
		if err := t.ledger.Insert(ctx, *record); err != nil {
			return nil, t.persistenceFailure("insert", err)
		}
		t.logger.Info().Str("userId", userID).Time("resetDate", record.ResetDate).Msg("Created usage record")

	case err != nil:
		return nil, t.persistenceFailure("fetch", err)

	case !now.Before(record.ResetDate):
		// Stale window: reset before the record is trusted for any decision.
		record.TasksUsed = 0
		record.ResetDate = now.Add(t.window)
		if err := t.ledger.Update(ctx, *record); err != nil {
			return nil, t.persistenceFailure("reset", err)
		}
		t.metrics.RecordQuotaReset()
		t.logger.Info().Str("userId", userID).Time("resetDate", record.ResetDate).Msg("Usage window elapsed, record reset")
	}

	t.mu.Lock()
	t.record = record
	t.mu.Unlock()

	out := *record
	return &out, nil
}

// Loaded reports whether a usage record has been loaded.
func (t *Tracker) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.record != nil
}

// Record returns a copy of the cached usage record, if loaded.
func (t *Tracker) Record() (storage.UsageRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.record == nil {
		return storage.UsageRecord{}, false
	}
	return *t.record, true
}

// CanUseTask reports whether the account may submit a task. Premium accounts
// always may; free accounts may while under the limit; with no record loaded
// the answer is false (fail closed).
func (t *Tracker) CanUseTask(account accounts.Account) bool {
	if account.IsPremium {
		return true
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.record == nil {
		return false
	}
	used, _ := t.effectiveLocked(t.now())
	return used < t.limit
}

// IncrementUsage consumes one task from the quota. Premium accounts succeed
// without touching the ledger. A false return with nil error means the quota
// is exhausted; callers must not proceed with the gated action.
func (t *Tracker) IncrementUsage(ctx context.Context, account accounts.Account) (bool, error) {
	if account.IsPremium {
		t.metrics.RecordQuotaDecision("allowed")
		return true, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.record == nil {
		t.metrics.RecordQuotaDecision("denied")
		return false, nil
	}

	now := t.now()
	used, resetDate := t.effectiveLocked(now)
	if used >= t.limit {
		t.metrics.RecordQuotaDecision("denied")
		t.logger.Info().
			Str("userId", t.record.UserID).
			Int("tasksUsed", used).
			Time("resetDate", resetDate).
			Msg("Quota exhausted, task rejected")
		return false, nil
	}

	// Single logical read-modify-write; the elapsed-window reset (if any)
	// is persisted together with the increment.
	updated := *t.record
	updated.TasksUsed = used + 1
	updated.ResetDate = resetDate
	updated.LastTaskDate = now

	if err := t.ledger.Update(ctx, updated); err != nil {
		t.metrics.RecordQuotaPersistenceError()
		return false, &PersistenceError{Op: "update", Err: err}
	}

	t.record = &updated
	t.metrics.RecordQuotaDecision("allowed")
	t.logger.Info().
		Str("userId", updated.UserID).
		Int("tasksUsed", updated.TasksUsed).
		Msg("Usage incremented")
	return true, nil
}

// RemainingTasks returns how many tasks the account may still submit in the
// current window. Premium accounts get the UnlimitedTasks sentinel.
func (t *Tracker) RemainingTasks(account accounts.Account) int {
	if account.IsPremium {
		return UnlimitedTasks
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.record == nil {
		return 0
	}
	used, _ := t.effectiveLocked(t.now())
	if remaining := t.limit - used; remaining > 0 {
		return remaining
	}
	return 0
}

// TimeUntilReset returns a human-readable duration until the quota window
// resets, floored to whole days and hours. Empty for premium accounts or
// when no record is loaded; "Available now" once the reset is due.
func (t *Tracker) TimeUntilReset(account accounts.Account) string {
	if account.IsPremium {
		return ""
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.record == nil {
		return ""
	}

	diff := t.record.ResetDate.Sub(t.now())
	if diff <= 0 {
		return "Available now"
	}

	days := int(diff / (24 * time.Hour))
	hours := int((diff % (24 * time.Hour)) / time.Hour)

	if days > 0 {
		return fmt.Sprintf("%d %s %d %s", days, plural("day", days > 1), hours, plural("hour", hours != 1))
	}
	return fmt.Sprintf("%d %s", hours, plural("hour", hours != 1))
}

// effectiveLocked returns the task count and reset date the cached record
// stands for at the given time: an elapsed window counts as zero used with a
// fresh reset date. A stale tasksUsed is never compared against the limit.
// Callers must hold at least the read lock.
func (t *Tracker) effectiveLocked(now time.Time) (used int, resetDate time.Time) {
	if !now.Before(t.record.ResetDate) {
		return 0, now.Add(t.window)
	}
	return t.record.TasksUsed, t.record.ResetDate
}

func (t *Tracker) persistenceFailure(op string, err error) error {
	t.mu.Lock()
	t.record = nil
	t.mu.Unlock()

	t.metrics.RecordQuotaPersistenceError()
	t.logger.Error().Err(err).Str("op", op).Msg("Usage ledger failure, tracker not loaded")
	return &PersistenceError{Op: op, Err: err}
}

func plural(word string, p bool) string {
	if p {
		return word + "s"
	}
	return word
}
