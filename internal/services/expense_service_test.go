package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
	"github.com/PiperGuy/panic-pocket/internal/storage"
	"github.com/google/uuid"
)

type fakeExpenseStore struct {
	defs      map[string]core.ExpenseDefinition
	instances map[string]core.ExpenseInstance
}

func newFakeExpenseStore() *fakeExpenseStore {
	return &fakeExpenseStore{
		defs:      make(map[string]core.ExpenseDefinition),
		instances: make(map[string]core.ExpenseInstance),
	}
}

func (s *fakeExpenseStore) CreateDefinition(_ context.Context, def core.ExpenseDefinition) (core.ExpenseDefinition, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	def.CreatedAt = time.Now().UTC()
	def.UpdatedAt = def.CreatedAt
	s.defs[def.ID] = def
	return def, nil
}

func (s *fakeExpenseStore) UpdateDefinition(_ context.Context, def core.ExpenseDefinition) (core.ExpenseDefinition, error) {
	if _, ok := s.defs[def.ID]; !ok {
		return core.ExpenseDefinition{}, storage.ErrNotFound
	}
	def.UpdatedAt = time.Now().UTC()
	s.defs[def.ID] = def
	return def, nil
}

func (s *fakeExpenseStore) DeleteDefinition(_ context.Context, id string) error {
	if _, ok := s.defs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.defs, id)
	for instID, inst := range s.instances {
		if inst.ExpenseID == id {
			delete(s.instances, instID)
		}
	}
	return nil
}

func (s *fakeExpenseStore) GetDefinition(_ context.Context, id string) (core.ExpenseDefinition, error) {
	def, ok := s.defs[id]
	if !ok {
		return core.ExpenseDefinition{}, storage.ErrNotFound
	}
	return def, nil
}

func (s *fakeExpenseStore) ListDefinitions(context.Context) ([]core.ExpenseDefinition, error) {
	out := make([]core.ExpenseDefinition, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def)
	}
	return out, nil
}

func (s *fakeExpenseStore) ListInstances(context.Context) ([]core.ExpenseInstance, error) {
	out := make([]core.ExpenseInstance, 0, len(s.instances))
	for _, inst := range s.instances {
		out = append(out, inst)
	}
	return out, nil
}

func (s *fakeExpenseStore) InsertInstances(_ context.Context, instances []core.ExpenseInstance) (int, error) {
	slots := make(map[string]struct{}, len(s.instances))
	for _, inst := range s.instances {
		slots[inst.ExpenseID+"|"+inst.DueDate.String()] = struct{}{}
	}
	inserted := 0
	for _, inst := range instances {
		key := inst.ExpenseID + "|" + inst.DueDate.String()
		if _, taken := slots[key]; taken {
			continue
		}
		slots[key] = struct{}{}
		s.instances[inst.ID] = inst
		inserted++
	}
	return inserted, nil
}

func validDefinition() core.ExpenseDefinition {
	return core.ExpenseDefinition{
		Name:         "Internet",
		Amount:       core.Money{Cents: 4999},
		FirstDueDate: core.DateOf(time.Now()),
		Recurrence:   core.RecurrenceMonthly,
		Category:     core.CategoryUtilities,
	}
}

func TestAddGeneratesInstancesImmediately(t *testing.T) {
	store := newFakeExpenseStore()
	svc := NewExpenseService(store, nil, 90*24*time.Hour, nil)

	created, err := svc.Add(context.Background(), validDefinition())
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("no id assigned")
	}
	// ~90 day horizon from a due date of today: 3 monthly instances at least.
	instances, _ := store.ListInstances(context.Background())
	if len(instances) < 3 {
		t.Fatalf("got %d instances after add, want >= 3", len(instances))
	}
	for _, inst := range instances {
		if inst.ExpenseID != created.ID {
			t.Errorf("instance for %s, want %s", inst.ExpenseID, created.ID)
		}
		if inst.Status != core.StatusPending {
			t.Errorf("instance status %q, want pending", inst.Status)
		}
	}
}

func TestAddRejectsInvalidDefinition(t *testing.T) {
	svc := NewExpenseService(newFakeExpenseStore(), nil, 90*24*time.Hour, nil)

	def := validDefinition()
	def.Name = "  "
	if _, err := svc.Add(context.Background(), def); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("got %v, want ErrEmptyName", err)
	}

	def = validDefinition()
	def.Amount = core.Money{Cents: 0}
	if _, err := svc.Add(context.Background(), def); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v, want ErrInvalidAmount", err)
	}
}

func TestUpdateKeepsExistingInstancesAsHistory(t *testing.T) {
	store := newFakeExpenseStore()
	svc := NewExpenseService(store, nil, 60*24*time.Hour, nil)
	ctx := context.Background()

	created, err := svc.Add(ctx, validDefinition())
	if err != nil {
		t.Fatal(err)
	}
	before, _ := store.ListInstances(ctx)

	created.Amount = core.Money{Cents: 5999}
	if _, err := svc.Update(ctx, created); err != nil {
		t.Fatal(err)
	}

	after, _ := store.ListInstances(ctx)
	if len(after) < len(before) {
		t.Fatalf("update removed instances: %d -> %d", len(before), len(after))
	}
	for _, inst := range before {
		if _, ok := store.instances[inst.ID]; !ok {
			t.Errorf("instance %s pruned by update", inst.ID)
		}
	}
}

func TestDeleteCascades(t *testing.T) {
	store := newFakeExpenseStore()
	svc := NewExpenseService(store, nil, 60*24*time.Hour, nil)
	ctx := context.Background()

	keep, _ := svc.Add(ctx, validDefinition())
	doomedDef := validDefinition()
	doomedDef.Name = "Doomed"
	doomed, _ := svc.Add(ctx, doomedDef)

	if err := svc.Delete(ctx, doomed.ID); err != nil {
		t.Fatal(err)
	}

	instances, _ := store.ListInstances(ctx)
	if len(instances) == 0 {
		t.Fatal("cascade removed the surviving definition's instances")
	}
	for _, inst := range instances {
		if inst.ExpenseID != keep.ID {
			t.Errorf("orphan instance %s for deleted %s", inst.ID, inst.ExpenseID)
		}
	}

	if err := svc.Delete(ctx, doomed.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestRegenerateIsIdempotent(t *testing.T) {
	store := newFakeExpenseStore()
	svc := NewExpenseService(store, nil, 60*24*time.Hour, nil)
	ctx := context.Background()

	if _, err := svc.Add(ctx, validDefinition()); err != nil {
		t.Fatal(err)
	}
	n, err := svc.Regenerate(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("second regeneration inserted %d instances, want 0", n)
	}
}
