package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/analytics"
	"github.com/PiperGuy/panic-pocket/internal/core"
)

// ExpenseStore is the slice of the repository the expense service needs.
type ExpenseStore interface {
	CreateDefinition(ctx context.Context, def core.ExpenseDefinition) (core.ExpenseDefinition, error)
	UpdateDefinition(ctx context.Context, def core.ExpenseDefinition) (core.ExpenseDefinition, error)
	DeleteDefinition(ctx context.Context, id string) error
	GetDefinition(ctx context.Context, id string) (core.ExpenseDefinition, error)
	ListDefinitions(ctx context.Context) ([]core.ExpenseDefinition, error)
	ListInstances(ctx context.Context) ([]core.ExpenseInstance, error)
	InsertInstances(ctx context.Context, instances []core.ExpenseInstance) (int, error)
}

// ExpenseService orchestrates definition mutations. Every write is followed
// by a regeneration pass before the call returns, so a read issued after a
// mutation always sees the instances the new schedule implies.
type ExpenseService struct {
	store    ExpenseStore
	recorder *analytics.Recorder
	horizon  time.Duration
	logger   *slog.Logger
}

func NewExpenseService(store ExpenseStore, recorder *analytics.Recorder, horizon time.Duration, logger *slog.Logger) *ExpenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseService{store: store, recorder: recorder, horizon: horizon, logger: logger}
}

func (s *ExpenseService) Add(ctx context.Context, def core.ExpenseDefinition) (core.ExpenseDefinition, error) {
	if err := def.Validate(); err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("add expense: %w", err)
	}
	created, err := s.store.CreateDefinition(ctx, def)
	if err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("add expense: %w", err)
	}
	if _, err := s.Regenerate(ctx, time.Now()); err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("add expense: %w", err)
	}
	s.track(ctx, analytics.EventExpenseAdded, created)
	return created, nil
}

// Update rewrites the definition. Existing instances stay as history even
// when the schedule changed; only future free slots get new instances.
func (s *ExpenseService) Update(ctx context.Context, def core.ExpenseDefinition) (core.ExpenseDefinition, error) {
	if err := def.Validate(); err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("update expense: %w", err)
	}
	updated, err := s.store.UpdateDefinition(ctx, def)
	if err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("update expense: %w", err)
	}
	if _, err := s.Regenerate(ctx, time.Now()); err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("update expense: %w", err)
	}
	s.track(ctx, analytics.EventExpenseUpdated, updated)
	return updated, nil
}

// Delete removes the definition and all its instances in one transaction.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	def, err := s.store.GetDefinition(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if err := s.store.DeleteDefinition(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.track(ctx, analytics.EventExpenseDeleted, def)
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.ExpenseDefinition, error) {
	return s.store.GetDefinition(ctx, id)
}

func (s *ExpenseService) List(ctx context.Context) ([]core.ExpenseDefinition, error) {
	return s.store.ListDefinitions(ctx)
}

// Regenerate projects every definition's schedule up to now+horizon and
// persists the instances missing from storage. Returns how many were added.
func (s *ExpenseService) Regenerate(ctx context.Context, now time.Time) (int, error) {
	defs, err := s.store.ListDefinitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("regenerate: %w", err)
	}
	existing, err := s.store.ListInstances(ctx)
	if err != nil {
		return 0, fmt.Errorf("regenerate: %w", err)
	}
	horizon := core.DateOf(now.Add(s.horizon))
	fresh := Generate(defs, existing, horizon)
	if len(fresh) == 0 {
		return 0, nil
	}
	inserted, err := s.store.InsertInstances(ctx, fresh)
	if err != nil {
		return 0, fmt.Errorf("regenerate: %w", err)
	}
	s.logger.InfoContext(ctx, "instances regenerated",
		"definitions", len(defs), "horizon", horizon.String(), "inserted", inserted)
	return inserted, nil
}

func (s *ExpenseService) track(ctx context.Context, event string, def core.ExpenseDefinition) {
	if s.recorder == nil {
		return
	}
	s.recorder.Track(ctx, event, map[string]any{
		"category":   string(def.Category),
		"recurrence": string(def.Recurrence),
	})
}
