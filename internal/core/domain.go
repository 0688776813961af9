package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
	RecurrenceCustom  RecurrenceType = "custom"
)

const (
	CategoryBills          Category = "bills"
	CategorySubscriptions  Category = "subscriptions"
	CategoryRent           Category = "rent"
	CategoryInsurance      Category = "insurance"
	CategoryUtilities      Category = "utilities"
	CategoryEntertainment  Category = "entertainment"
	CategoryTransportation Category = "transportation"
	CategoryHealthcare     Category = "healthcare"
	CategoryOther          Category = "other"
)

const (
	StatusPending InstanceStatus = "pending"
	StatusPaid    InstanceStatus = "paid"
	StatusOverdue InstanceStatus = "overdue" // derived at read time, never stored
	StatusSnoozed InstanceStatus = "snoozed"
	StatusSkipped InstanceStatus = "skipped"
)

type (
	RecurrenceType string
	Category       string
	InstanceStatus string

	// ExpenseDefinition is the recurring template an expense's due-date
	// instances are projected from. ID is immutable once created;
	// CreatedAt/UpdatedAt are owned by the definition store.
	ExpenseDefinition struct {
		ID                   string         `json:"id"`
		Name                 string         `json:"name"`
		Amount               Money          `json:"amount"`
		FirstDueDate         Date           `json:"firstDueDate"`
		Recurrence           RecurrenceType `json:"recurrence"`
		CustomRecurrenceDays int            `json:"customRecurrence,omitempty"`
		Category             Category       `json:"category"`
		Notes                string         `json:"notes,omitempty"`
		CreatedAt            time.Time      `json:"createdAt"`
		UpdatedAt            time.Time      `json:"updatedAt"`
	}

	// ExpenseInstance is a single projected occurrence of a definition.
	// At most one instance may exist per (ExpenseID, calendar day of DueDate).
	ExpenseInstance struct {
		ID           string         `json:"id"`
		ExpenseID    string         `json:"expenseId"`
		DueDate      Date           `json:"dueDate"`
		Status       InstanceStatus `json:"status"`
		PaidAt       *time.Time     `json:"paidAt,omitempty"`
		SnoozedUntil *Date          `json:"snoozedUntil,omitempty"`
		Skipped      bool           `json:"skipped,omitempty"`
	}
)

var (
	ErrEmptyName         = errors.New("empty expense name")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingDueDate    = errors.New("missing first due date")
	ErrInvalidRecurrence = errors.New("invalid recurrence type")
	ErrInvalidCustomDays = errors.New("custom recurrence requires a positive day interval")
	ErrInvalidCategory   = errors.New("invalid category")
)

// ValidRecurrences lists the accepted recurrence types.
var ValidRecurrences = []RecurrenceType{
	RecurrenceNone, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly, RecurrenceCustom,
}

// ValidCategories lists the accepted expense categories.
var ValidCategories = []Category{
	CategoryBills, CategorySubscriptions, CategoryRent, CategoryInsurance,
	CategoryUtilities, CategoryEntertainment, CategoryTransportation,
	CategoryHealthcare, CategoryOther,
}

func (r RecurrenceType) Valid() bool {
	for _, v := range ValidRecurrences {
		if r == v {
			return true
		}
	}
	return false
}

func (c Category) Valid() bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Terminal reports whether a stored status accepts no further transitions.
func (s InstanceStatus) Terminal() bool {
	return s == StatusPaid || s == StatusSkipped
}

// Validate rejects a definition before it reaches the instance generator.
// The generator assumes validated input.
func (e ExpenseDefinition) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.FirstDueDate.IsZero() {
		return ErrMissingDueDate
	}
	if !e.Recurrence.Valid() {
		return ErrInvalidRecurrence
	}
	if e.Recurrence == RecurrenceCustom {
		if e.CustomRecurrenceDays <= 0 {
			return ErrInvalidCustomDays
		}
	} else if e.CustomRecurrenceDays != 0 {
		return errors.New("custom recurrence days set without custom recurrence")
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}
