package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
)

// Reminder is one payment reminder headed for the delivery queue.
type Reminder struct {
	InstanceID   string            `json:"instanceId"`
	ExpenseID    string            `json:"expenseId"`
	Name         string            `json:"name"`
	Amount       core.Money        `json:"amount"`
	Currency     string            `json:"currency"`
	DueDate      core.Date         `json:"dueDate"`
	DaysUntilDue int               `json:"daysUntilDue"`
	Urgency      core.UrgencyLevel `json:"urgency"`
	Channels     []string          `json:"channels"`
	Message      string            `json:"message"`
}

// ReminderPublisher hands reminders to an external delivery collaborator.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, r Reminder) error
	PublishSummary(ctx context.Context, summary core.MonthlySummary) error
}

// SnapshotStore is the read surface the processor scans.
type SnapshotStore interface {
	ListDefinitions(ctx context.Context) ([]core.ExpenseDefinition, error)
	ListInstances(ctx context.Context) ([]core.ExpenseInstance, error)
	GetSettings(ctx context.Context) (core.AppSettings, error)
}

// ReminderProcessor scans pending instances and publishes a reminder for
// each one due within the configured notice window, overdue ones included.
type ReminderProcessor struct {
	store     SnapshotStore
	publisher ReminderPublisher
	logger    *slog.Logger
}

func NewReminderProcessor(store SnapshotStore, publisher ReminderPublisher, logger *slog.Logger) *ReminderProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderProcessor{store: store, publisher: publisher, logger: logger}
}

// Scan publishes reminders for instances due within the settings window.
// Snoozed instances stay quiet until their snooze date passes. Returns how
// many reminders were published.
func (p *ReminderProcessor) Scan(ctx context.Context, now time.Time) (int, error) {
	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		return 0, fmt.Errorf("reminder scan: %w", err)
	}
	if !settings.Notifications.Enabled {
		p.logger.DebugContext(ctx, "notifications disabled, skipping reminder scan")
		return 0, nil
	}
	if p.publisher == nil {
		p.logger.WarnContext(ctx, "no reminder publisher configured, skipping scan")
		return 0, nil
	}

	defs, err := p.store.ListDefinitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("reminder scan: %w", err)
	}
	instances, err := p.store.ListInstances(ctx)
	if err != nil {
		return 0, fmt.Errorf("reminder scan: %w", err)
	}

	today := core.DateOf(now)
	published := 0
	for _, v := range Join(defs, instances, now) {
		if v.Status != core.StatusPending && v.Status != core.StatusOverdue && v.Status != core.StatusSnoozed {
			continue
		}
		if v.Status == core.StatusSnoozed {
			until := v.Instance.SnoozedUntil
			if until == nil || today.Before(until.Time) {
				continue
			}
		}
		days := core.DaysBetween(today, v.Instance.DueDate)
		if days > settings.Notifications.DaysBefore {
			continue
		}
		r := Reminder{
			InstanceID:   v.Instance.ID,
			ExpenseID:    v.Definition.ID,
			Name:         v.Definition.Name,
			Amount:       v.Definition.Amount,
			Currency:     settings.Currency,
			DueDate:      v.Instance.DueDate,
			DaysUntilDue: days,
			Urgency:      v.Urgency,
			Channels:     settings.Notifications.Channels,
			Message:      reminderMessage(v.Definition, days, settings.Currency),
		}
		if err := p.publisher.PublishReminder(ctx, r); err != nil {
			return published, fmt.Errorf("reminder scan: publish %s: %w", r.InstanceID, err)
		}
		published++
	}
	if published > 0 {
		p.logger.InfoContext(ctx, "reminders published", "count", published)
	}
	return published, nil
}

// PublishWeeklySummary sends the current month's totals to the queue.
func (p *ReminderProcessor) PublishWeeklySummary(ctx context.Context, now time.Time) error {
	if p.publisher == nil {
		p.logger.WarnContext(ctx, "no reminder publisher configured, skipping weekly summary")
		return nil
	}
	defs, err := p.store.ListDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("weekly summary: %w", err)
	}
	instances, err := p.store.ListInstances(ctx)
	if err != nil {
		return fmt.Errorf("weekly summary: %w", err)
	}
	summary := MonthlySummary(Join(defs, instances, now), now.Year(), now.Month())
	if err := p.publisher.PublishSummary(ctx, summary); err != nil {
		return fmt.Errorf("weekly summary: %w", err)
	}
	return nil
}

func reminderMessage(def core.ExpenseDefinition, days int, currency string) string {
	amount := core.FormatAmount(def.Amount, currency)
	switch {
	case days < 0:
		return fmt.Sprintf("%s (%s) is overdue by %d day(s)", def.Name, amount, -days)
	case days == 0:
		return fmt.Sprintf("%s (%s) is due today", def.Name, amount)
	case days == 1:
		return fmt.Sprintf("%s (%s) is due tomorrow", def.Name, amount)
	default:
		return fmt.Sprintf("%s (%s) is due in %d days", def.Name, amount, days)
	}
}
