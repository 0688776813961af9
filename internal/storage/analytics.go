package storage

import (
	"context"
	"fmt"
	"time"
)

// AnalyticsEvent is one recorded usage event.
type AnalyticsEvent struct {
	ID        int64
	Event     string
	Payload   []byte
	CreatedAt time.Time
}

// EventCount pairs an event name with how often it was recorded.
type EventCount struct {
	Event string
	Count int
}

func (r *SQLiteRepository) InsertEvent(ctx context.Context, event string, payload []byte, at time.Time) error {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO analytics_events (event, payload, created_at) VALUES (?, ?, ?)`,
		event, string(payload), at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

// PruneEvents keeps only the most recent `keep` events.
func (r *SQLiteRepository) PruneEvents(ctx context.Context, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM analytics_events
		WHERE id NOT IN (SELECT id FROM analytics_events ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune analytics events: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CountEvents(ctx context.Context, event string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analytics_events WHERE event = ?`, event).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count analytics events: %w", err)
	}
	return n, nil
}

// ListEventsSince returns events recorded after the cutoff, oldest first.
func (r *SQLiteRepository) ListEventsSince(ctx context.Context, since time.Time) ([]AnalyticsEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event, payload, created_at FROM analytics_events
		WHERE created_at > ? ORDER BY id`, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("list analytics events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListRecentEvents returns the newest events first, up to limit.
func (r *SQLiteRepository) ListRecentEvents(ctx context.Context, limit int) ([]AnalyticsEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event, payload, created_at FROM analytics_events
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent analytics events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// EventCounts ranks events by frequency, most popular first.
func (r *SQLiteRepository) EventCounts(ctx context.Context) ([]EventCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event, COUNT(*) AS n FROM analytics_events
		GROUP BY event ORDER BY n DESC, event`)
	if err != nil {
		return nil, fmt.Errorf("aggregate analytics events: %w", err)
	}
	defer rows.Close()

	var counts []EventCount
	for rows.Next() {
		var ec EventCount
		if err := rows.Scan(&ec.Event, &ec.Count); err != nil {
			return nil, fmt.Errorf("scan analytics count: %w", err)
		}
		counts = append(counts, ec)
	}
	return counts, rows.Err()
}

func (r *SQLiteRepository) ClearEvents(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM analytics_events`); err != nil {
		return fmt.Errorf("clear analytics events: %w", err)
	}
	return nil
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectEvents(rows eventRows) ([]AnalyticsEvent, error) {
	var events []AnalyticsEvent
	for rows.Next() {
		var (
			ev        AnalyticsEvent
			payload   string
			createdAt string
		)
		if err := rows.Scan(&ev.ID, &ev.Event, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan analytics event: %w", err)
		}
		ev.Payload = []byte(payload)
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse event timestamp %q: %w", createdAt, err)
		}
		ev.CreatedAt = t
		events = append(events, ev)
	}
	return events, rows.Err()
}
