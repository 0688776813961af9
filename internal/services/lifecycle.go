package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
)

var ErrSnoozeDateRequired = errors.New("snooze requires a date")

// InstanceStore is the slice of the repository the lifecycle needs.
type InstanceStore interface {
	GetInstance(ctx context.Context, id string) (core.ExpenseInstance, error)
	UpdateInstance(ctx context.Context, inst core.ExpenseInstance) error
}

// Lifecycle applies status transitions to stored instances. Transitions on
// an instance already in a terminal state (paid, skipped) are ignored and
// the stored instance is returned unchanged.
type Lifecycle struct {
	store InstanceStore
}

func NewLifecycle(store InstanceStore) *Lifecycle {
	return &Lifecycle{store: store}
}

func (l *Lifecycle) MarkPaid(ctx context.Context, id string, now time.Time) (core.ExpenseInstance, error) {
	inst, err := l.store.GetInstance(ctx, id)
	if err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("mark paid: %w", err)
	}
	if inst.Status.Terminal() {
		return inst, nil
	}
	paidAt := now.UTC()
	inst.Status = core.StatusPaid
	inst.PaidAt = &paidAt
	inst.SnoozedUntil = nil
	if err := l.store.UpdateInstance(ctx, inst); err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("mark paid: %w", err)
	}
	return inst, nil
}

// Snooze defers the reminder without moving the due date; no follow-up
// instance is created.
func (l *Lifecycle) Snooze(ctx context.Context, id string, until *core.Date) (core.ExpenseInstance, error) {
	if until == nil {
		return core.ExpenseInstance{}, ErrSnoozeDateRequired
	}
	inst, err := l.store.GetInstance(ctx, id)
	if err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("snooze: %w", err)
	}
	if inst.Status.Terminal() {
		return inst, nil
	}
	inst.Status = core.StatusSnoozed
	inst.SnoozedUntil = until
	if err := l.store.UpdateInstance(ctx, inst); err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("snooze: %w", err)
	}
	return inst, nil
}

func (l *Lifecycle) Skip(ctx context.Context, id string) (core.ExpenseInstance, error) {
	inst, err := l.store.GetInstance(ctx, id)
	if err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("skip: %w", err)
	}
	if inst.Status.Terminal() {
		return inst, nil
	}
	inst.Status = core.StatusSkipped
	inst.Skipped = true
	inst.SnoozedUntil = nil
	if err := l.store.UpdateInstance(ctx, inst); err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("skip: %w", err)
	}
	return inst, nil
}
