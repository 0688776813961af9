package amqp

import (
	"encoding/json"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
	"github.com/PiperGuy/panic-pocket/internal/services"
)

// Message kinds carried on the reminder queue.
const (
	KindReminder = "reminder"
	KindSummary  = "monthly_summary"
)

// ReminderMessage is the envelope published for an external delivery
// worker. Exactly one of Reminder or Summary is set, per Kind.
type ReminderMessage struct {
	Kind      string               `json:"kind"`
	Reminder  *services.Reminder   `json:"reminder,omitempty"`
	Summary   *core.MonthlySummary `json:"summary,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

func NewReminderMessage(r services.Reminder) *ReminderMessage {
	return &ReminderMessage{Kind: KindReminder, Reminder: &r, Timestamp: time.Now()}
}

func NewSummaryMessage(s core.MonthlySummary) *ReminderMessage {
	return &ReminderMessage{Kind: KindSummary, Summary: &s, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
