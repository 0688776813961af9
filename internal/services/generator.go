package services

import (
	"github.com/PiperGuy/panic-pocket/internal/core"
	"github.com/google/uuid"
)

// Generate walks every definition's recurrence schedule from its first due
// date up to (but excluding) the horizon and returns the instances that do
// not already occupy a (expense, calendar day) slot. Inputs are never
// mutated; returned instances all start pending.
func Generate(defs []core.ExpenseDefinition, existing []core.ExpenseInstance, horizon core.Date) []core.ExpenseInstance {
	seen := make(map[string]struct{}, len(existing))
	for _, inst := range existing {
		seen[slotKey(inst.ExpenseID, inst.DueDate)] = struct{}{}
	}

	var out []core.ExpenseInstance
	emit := func(expenseID string, due core.Date) {
		key := slotKey(expenseID, due)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, core.ExpenseInstance{
			ID:        uuid.NewString(),
			ExpenseID: expenseID,
			DueDate:   due,
			Status:    core.StatusPending,
		})
	}

	for _, def := range defs {
		if def.Recurrence == core.RecurrenceNone {
			if def.FirstDueDate.Before(horizon.Time) {
				emit(def.ID, def.FirstDueDate)
			}
			continue
		}
		for due := def.FirstDueDate; due.Before(horizon.Time); due = core.AddInterval(due, def.Recurrence, def.CustomRecurrenceDays) {
			emit(def.ID, due)
		}
	}
	return out
}

func slotKey(expenseID string, due core.Date) string {
	return expenseID + "|" + due.String()
}
