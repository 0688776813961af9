package core

import "time"

type UrgencyLevel string

const (
	UrgencyHigh   UrgencyLevel = "high"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyLow    UrgencyLevel = "low"
)

// EffectiveStatus is the single place overdue is derived. Storage keeps
// pending; a pending instance whose due date is before today reads as
// overdue. Every other status passes through unchanged.
func EffectiveStatus(inst ExpenseInstance, now time.Time) InstanceStatus {
	if inst.Status == StatusPending && inst.DueDate.Before(DateOf(now).Time) {
		return StatusOverdue
	}
	return inst.Status
}

// Urgency classifies how soon a due date needs attention: overdue or due
// within a week is high, within a month medium, anything later low.
func Urgency(due Date, now time.Time) UrgencyLevel {
	days := DaysBetween(DateOf(now), due)
	switch {
	case days < 0:
		return UrgencyHigh
	case days <= 7:
		return UrgencyHigh
	case days <= 30:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
