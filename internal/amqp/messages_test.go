package amqp

import (
	"testing"

	"github.com/PiperGuy/panic-pocket/internal/core"
	"github.com/PiperGuy/panic-pocket/internal/services"
)

func TestReminderMessageJSON(t *testing.T) {
	msg := NewReminderMessage(services.Reminder{
		InstanceID:   "i1",
		ExpenseID:    "e1",
		Name:         "Rent",
		Amount:       core.Money{Cents: 120000},
		Currency:     "USD",
		DueDate:      core.NewDate(2024, 3, 10),
		DaysUntilDue: 2,
		Urgency:      core.UrgencyHigh,
		Message:      "Rent ($1200.00) is due in 2 days",
	})

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ReminderMessageFromJSON(body)
	if err != nil {
		t.Fatalf("ReminderMessageFromJSON() error = %v", err)
	}
	if parsed.Kind != KindReminder {
		t.Errorf("kind %q, want %q", parsed.Kind, KindReminder)
	}
	if parsed.Reminder == nil {
		t.Fatal("reminder payload missing")
	}
	if parsed.Reminder.InstanceID != "i1" {
		t.Errorf("instance %q, want i1", parsed.Reminder.InstanceID)
	}
	if parsed.Reminder.Amount.Cents != 120000 {
		t.Errorf("amount %d cents, want 120000", parsed.Reminder.Amount.Cents)
	}
	if !core.SameCalendarDay(parsed.Reminder.DueDate, core.NewDate(2024, 3, 10)) {
		t.Errorf("due date %s, want 2024-03-10", parsed.Reminder.DueDate)
	}
	if parsed.Summary != nil {
		t.Error("summary must be absent on a reminder message")
	}
	if parsed.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
}

func TestSummaryMessageJSON(t *testing.T) {
	msg := NewSummaryMessage(core.MonthlySummary{
		Year: 2024, Month: 3,
		TotalExpected: core.Money{Cents: 150000},
		TotalPaid:     core.Money{Cents: 120000},
		TotalUnpaid:   core.Money{Cents: 30000},
	})

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ReminderMessageFromJSON(body)
	if err != nil {
		t.Fatalf("ReminderMessageFromJSON() error = %v", err)
	}
	if parsed.Kind != KindSummary {
		t.Errorf("kind %q, want %q", parsed.Kind, KindSummary)
	}
	if parsed.Summary == nil {
		t.Fatal("summary payload missing")
	}
	if parsed.Summary.TotalExpected.Cents != 150000 {
		t.Errorf("expected %d cents, want 150000", parsed.Summary.TotalExpected.Cents)
	}
	if parsed.Reminder != nil {
		t.Error("reminder must be absent on a summary message")
	}
}

func TestReminderMessageInvalidJSON(t *testing.T) {
	if _, err := ReminderMessageFromJSON([]byte(`{"kind": 42}`)); err == nil {
		t.Error("ReminderMessageFromJSON() should fail with invalid JSON")
	}
}
