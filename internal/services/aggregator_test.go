package services

import (
	"testing"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
)

func fixtureViews(now time.Time) []InstanceView {
	defs := []core.ExpenseDefinition{
		{ID: "rent", Name: "Apartment Rent", Amount: core.Money{Cents: 120000}, Category: core.CategoryRent, Notes: "landlord wants wire transfer"},
		{ID: "netflix", Name: "Netflix", Amount: core.Money{Cents: 1599}, Category: core.CategorySubscriptions},
		{ID: "gym", Name: "Gym Membership", Amount: core.Money{Cents: 4500}, Category: core.CategoryOther},
	}
	paidAt := now
	instances := []core.ExpenseInstance{
		{ID: "i1", ExpenseID: "rent", DueDate: core.NewDate(2024, 3, 1), Status: core.StatusPaid, PaidAt: &paidAt},
		{ID: "i2", ExpenseID: "netflix", DueDate: core.NewDate(2024, 3, 10), Status: core.StatusPending},
		{ID: "i3", ExpenseID: "gym", DueDate: core.NewDate(2024, 3, 5), Status: core.StatusPending}, // overdue at now
		{ID: "i4", ExpenseID: "netflix", DueDate: core.NewDate(2024, 4, 10), Status: core.StatusPending},
		{ID: "i5", ExpenseID: "gym", DueDate: core.NewDate(2024, 3, 20), Status: core.StatusSkipped},
	}
	return Join(defs, instances, now)
}

func TestJoinDerivesOverdue(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	views := fixtureViews(now)

	byID := make(map[string]InstanceView)
	for _, v := range views {
		byID[v.Instance.ID] = v
	}
	if byID["i3"].Status != core.StatusOverdue {
		t.Errorf("i3 status %q, want overdue", byID["i3"].Status)
	}
	if byID["i3"].Instance.Status != core.StatusPending {
		t.Errorf("stored status changed to %q, must stay pending", byID["i3"].Instance.Status)
	}
	if byID["i2"].Status != core.StatusPending {
		t.Errorf("i2 status %q, want pending", byID["i2"].Status)
	}
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	views := fixtureViews(now)

	got := Upcoming(views, now, 10)
	if len(got) != 2 {
		t.Fatalf("got %d upcoming, want 2", len(got))
	}
	if got[0].Instance.ID != "i2" || got[1].Instance.ID != "i4" {
		t.Errorf("order [%s %s], want [i2 i4]", got[0].Instance.ID, got[1].Instance.ID)
	}

	if got := Upcoming(views, now, 1); len(got) != 1 {
		t.Errorf("limit 1: got %d", len(got))
	}
}

func TestMonthlySummary(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	views := fixtureViews(now)

	s := MonthlySummary(views, 2024, time.March)
	// Rent paid; netflix and gym pending; the skipped gym instance still
	// counts toward expected and unpaid.
	if s.TotalExpected.Cents != 120000+1599+4500+4500 {
		t.Errorf("expected %d cents, want %d", s.TotalExpected.Cents, 120000+1599+4500+4500)
	}
	if s.TotalPaid.Cents != 120000 {
		t.Errorf("paid %d cents, want 120000", s.TotalPaid.Cents)
	}
	if s.TotalUnpaid.Cents != 1599+4500+4500 {
		t.Errorf("unpaid %d cents, want %d", s.TotalUnpaid.Cents, 1599+4500+4500)
	}
	if s.ProgressPercentage <= 0 || s.ProgressPercentage >= 100 {
		t.Errorf("progress %.2f, want between 0 and 100", s.ProgressPercentage)
	}
}

func TestMonthlySummaryEmptyMonth(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	views := fixtureViews(now)

	s := MonthlySummary(views, 2030, time.January)
	if s.TotalExpected.Cents != 0 || s.TotalPaid.Cents != 0 || s.TotalUnpaid.Cents != 0 {
		t.Errorf("empty month produced totals: %+v", s)
	}
	if s.ProgressPercentage != 0 {
		t.Errorf("progress %.2f, want exactly 0 (never NaN)", s.ProgressPercentage)
	}
}

func TestFilter(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	views := fixtureViews(now)
	from := core.NewDate(2024, 3, 1)
	to := core.NewDate(2024, 3, 31)

	tests := []struct {
		name     string
		criteria FilterCriteria
		wantIDs  []string
	}{
		{"no criteria matches all", FilterCriteria{}, []string{"i1", "i2", "i3", "i4", "i5"}},
		{"by category", FilterCriteria{Category: core.CategorySubscriptions}, []string{"i2", "i4"}},
		{"by derived overdue", FilterCriteria{Status: core.StatusOverdue}, []string{"i3"}},
		{"by date range", FilterCriteria{From: &from, To: &to}, []string{"i1", "i2", "i3", "i5"}},
		{"search name", FilterCriteria{Search: "netflix"}, []string{"i2", "i4"}},
		{"search notes", FilterCriteria{Search: "WIRE"}, []string{"i1"}},
		{"combined", FilterCriteria{Category: core.CategorySubscriptions, From: &from, To: &to}, []string{"i2"}},
		{"no match", FilterCriteria{Search: "yacht"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(views, tt.criteria)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d views, want %d", len(got), len(tt.wantIDs))
			}
			for i, v := range got {
				if v.Instance.ID != tt.wantIDs[i] {
					t.Errorf("view %d is %s, want %s", i, v.Instance.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestSortStable(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	views := fixtureViews(now)

	Sort(views, SortByAmount, false)
	if views[0].Definition.ID != "netflix" {
		t.Errorf("cheapest first: got %s", views[0].Definition.ID)
	}
	if views[len(views)-1].Definition.ID != "rent" {
		t.Errorf("priciest last: got %s", views[len(views)-1].Definition.ID)
	}
	// Equal amounts (the two netflix rows) keep insertion order.
	if views[0].Instance.ID != "i2" || views[1].Instance.ID != "i4" {
		t.Errorf("stability broken: [%s %s]", views[0].Instance.ID, views[1].Instance.ID)
	}

	Sort(views, SortByName, true)
	if views[0].Definition.Name != "Netflix" {
		t.Errorf("descending by name: got %s first", views[0].Definition.Name)
	}

	Sort(views, SortByDueDate, false)
	for i := 1; i < len(views); i++ {
		if views[i].Instance.DueDate.Before(views[i-1].Instance.DueDate.Time) {
			t.Fatalf("due dates out of order at %d", i)
		}
	}
}
