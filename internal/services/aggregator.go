package services

import (
	"sort"
	"strings"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
)

// InstanceView joins an instance with its definition for display and
// filtering. Status is the effective status, overdue included.
type InstanceView struct {
	Instance   core.ExpenseInstance   `json:"instance"`
	Definition core.ExpenseDefinition `json:"definition"`
	Status     core.InstanceStatus    `json:"status"`
	Urgency    core.UrgencyLevel      `json:"urgency"`
}

// FilterCriteria narrows an instance list; zero-value fields match
// everything and set fields combine with AND.
type FilterCriteria struct {
	Category core.Category
	Status   core.InstanceStatus
	From     *core.Date
	To       *core.Date
	Search   string
}

type SortField string

const (
	SortByName     SortField = "name"
	SortByAmount   SortField = "amount"
	SortByDueDate  SortField = "dueDate"
	SortByCategory SortField = "category"
	SortByStatus   SortField = "status"
)

// Join builds views for every instance whose definition is present,
// resolving effective status and urgency against now.
func Join(defs []core.ExpenseDefinition, instances []core.ExpenseInstance, now time.Time) []InstanceView {
	byID := make(map[string]core.ExpenseDefinition, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}
	views := make([]InstanceView, 0, len(instances))
	for _, inst := range instances {
		def, ok := byID[inst.ExpenseID]
		if !ok {
			continue
		}
		views = append(views, InstanceView{
			Instance:   inst,
			Definition: def,
			Status:     core.EffectiveStatus(inst, now),
			Urgency:    core.Urgency(inst.DueDate, now),
		})
	}
	return views
}

// Upcoming returns pending instances due strictly after now, soonest first,
// truncated to limit (limit <= 0 means no cap).
func Upcoming(views []InstanceView, now time.Time, limit int) []InstanceView {
	today := core.DateOf(now)
	var out []InstanceView
	for _, v := range views {
		if v.Instance.Status != core.StatusPending {
			continue
		}
		if !v.Instance.DueDate.After(today.Time) {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Instance.DueDate.Before(out[j].Instance.DueDate.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MonthlySummary totals every instance whose due date falls inside the
// given month; anything not paid, skipped included, counts as unpaid.
func MonthlySummary(views []InstanceView, year int, month time.Month) core.MonthlySummary {
	first, last := core.MonthRange(year, month)
	summary := core.MonthlySummary{Year: year, Month: int(month)}
	for _, v := range views {
		due := v.Instance.DueDate
		if due.Before(first.Time) || due.After(last.Time) {
			continue
		}
		summary.TotalExpected = summary.TotalExpected.Add(v.Definition.Amount)
		if v.Instance.Status == core.StatusPaid {
			summary.TotalPaid = summary.TotalPaid.Add(v.Definition.Amount)
		} else {
			summary.TotalUnpaid = summary.TotalUnpaid.Add(v.Definition.Amount)
		}
	}
	if summary.TotalExpected.Cents > 0 {
		summary.ProgressPercentage = float64(summary.TotalPaid.Cents) / float64(summary.TotalExpected.Cents) * 100
	}
	return summary
}

// Filter keeps views matching every set criterion. Status matches the
// effective status, so filtering for overdue works even though overdue is
// never stored. Search is a case-insensitive substring over name and notes.
func Filter(views []InstanceView, c FilterCriteria) []InstanceView {
	search := strings.ToLower(c.Search)
	var out []InstanceView
	for _, v := range views {
		if c.Category != "" && v.Definition.Category != c.Category {
			continue
		}
		if c.Status != "" && v.Status != c.Status {
			continue
		}
		if c.From != nil && v.Instance.DueDate.Before(c.From.Time) {
			continue
		}
		if c.To != nil && v.Instance.DueDate.After(c.To.Time) {
			continue
		}
		if search != "" {
			name := strings.ToLower(v.Definition.Name)
			notes := strings.ToLower(v.Definition.Notes)
			if !strings.Contains(name, search) && !strings.Contains(notes, search) {
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

// Sort orders views in place by the given field; equal elements keep their
// relative order. Unknown fields fall back to due date.
func Sort(views []InstanceView, field SortField, descending bool) {
	less := func(a, b InstanceView) bool {
		switch field {
		case SortByName:
			return strings.ToLower(a.Definition.Name) < strings.ToLower(b.Definition.Name)
		case SortByAmount:
			return a.Definition.Amount.Cents < b.Definition.Amount.Cents
		case SortByCategory:
			return a.Definition.Category < b.Definition.Category
		case SortByStatus:
			return a.Status < b.Status
		default:
			return a.Instance.DueDate.Before(b.Instance.DueDate.Time)
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		if descending {
			return less(views[j], views[i])
		}
		return less(views[i], views[j])
	})
}
