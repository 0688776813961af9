package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/storage"
)

// Event names recorded across the app.
const (
	EventExpenseAdded    = "expense_added"
	EventExpenseUpdated  = "expense_updated"
	EventExpenseDeleted  = "expense_deleted"
	EventExpensePaid     = "expense_paid"
	EventExpenseSnoozed  = "expense_snoozed"
	EventExpenseSkipped  = "expense_skipped"
	EventDataExported    = "data_exported"
	EventDataImported    = "data_imported"
	EventSettingsUpdated = "settings_updated"
)

// maxStoredEvents caps the event table at the most recent entries.
const maxStoredEvents = 1000

// Store is the slice of the repository the recorder needs.
type Store interface {
	InsertEvent(ctx context.Context, event string, payload []byte, at time.Time) error
	PruneEvents(ctx context.Context, keep int) error
	CountEvents(ctx context.Context, event string) (int, error)
	ListRecentEvents(ctx context.Context, limit int) ([]storage.AnalyticsEvent, error)
	ListEventsSince(ctx context.Context, since time.Time) ([]storage.AnalyticsEvent, error)
	EventCounts(ctx context.Context) ([]storage.EventCount, error)
	ClearEvents(ctx context.Context) error
}

// Recorder persists usage events. Tracking failures are logged and
// swallowed so instrumentation never breaks the operation being tracked.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Track records an event with an optional properties payload.
func (r *Recorder) Track(ctx context.Context, event string, properties map[string]any) {
	var payload []byte
	if len(properties) > 0 {
		var err error
		payload, err = json.Marshal(properties)
		if err != nil {
			r.logger.WarnContext(ctx, "analytics payload not serializable", "event", event, "error", err)
			payload = nil
		}
	}
	if err := r.store.InsertEvent(ctx, event, payload, time.Now().UTC()); err != nil {
		r.logger.WarnContext(ctx, "analytics event not recorded", "event", event, "error", err)
		return
	}
	if err := r.store.PruneEvents(ctx, maxStoredEvents); err != nil {
		r.logger.WarnContext(ctx, "analytics prune failed", "error", err)
	}
}

func (r *Recorder) Count(ctx context.Context, event string) (int, error) {
	n, err := r.store.CountEvents(ctx, event)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (r *Recorder) Recent(ctx context.Context, limit int) ([]storage.AnalyticsEvent, error) {
	events, err := r.store.ListRecentEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// Popular ranks events by how often they occurred, most frequent first.
func (r *Recorder) Popular(ctx context.Context) ([]storage.EventCount, error) {
	counts, err := r.store.EventCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}
	return counts, nil
}

// Export serializes events recorded since the given time as a JSON array.
func (r *Recorder) Export(ctx context.Context, since time.Time) ([]byte, error) {
	events, err := r.store.ListEventsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("export events: %w", err)
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("export events: %w", err)
	}
	return data, nil
}

func (r *Recorder) Clear(ctx context.Context) error {
	if err := r.store.ClearEvents(ctx); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}
