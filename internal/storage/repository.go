// Package storage persists expense definitions, projected instances,
// settings, and analytics events in SQLite. Every mutating method runs in a
// single transaction so the dedup and cascade invariants hold even when the
// server and worker binaries share a database file.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PiperGuy/panic-pocket/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateDefinition inserts a new expense definition. ID (when absent) and
// CreatedAt/UpdatedAt are set here; callers never supply them.
func (r *SQLiteRepository) CreateDefinition(ctx context.Context, def core.ExpenseDefinition) (core.ExpenseDefinition, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, name, amount_cents, first_due_date, recurrence,
			custom_recurrence_days, category, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Name, def.Amount.Cents, def.FirstDueDate.Format(dateLayout),
		string(def.Recurrence), def.CustomRecurrenceDays, string(def.Category),
		def.Notes, now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("create expense definition: %w", err)
	}

	slog.InfoContext(ctx, "Expense definition saved",
		"id", def.ID,
		"name", def.Name,
		"amount_cents", def.Amount.Cents,
		"recurrence", def.Recurrence)

	return def, nil
}

// UpdateDefinition replaces every caller-editable field of a definition and
// refreshes UpdatedAt. ID and CreatedAt are immutable.
func (r *SQLiteRepository) UpdateDefinition(ctx context.Context, def core.ExpenseDefinition) (core.ExpenseDefinition, error) {
	def.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET name = ?, amount_cents = ?, first_due_date = ?, recurrence = ?,
			custom_recurrence_days = ?, category = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		def.Name, def.Amount.Cents, def.FirstDueDate.Format(dateLayout),
		string(def.Recurrence), def.CustomRecurrenceDays, string(def.Category),
		def.Notes, def.UpdatedAt.Format(timeLayout), def.ID)
	if err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("update expense definition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ExpenseDefinition{}, fmt.Errorf("update expense definition %s: %w", def.ID, ErrNotFound)
	}

	stored, err := r.GetDefinition(ctx, def.ID)
	if err != nil {
		return core.ExpenseDefinition{}, err
	}
	return stored, nil
}

// DeleteDefinition removes a definition and all of its instances as one
// atomic step. The FK cascade covers the instances; the explicit transaction
// keeps the pair all-or-nothing.
func (r *SQLiteRepository) DeleteDefinition(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_instances WHERE expense_id = ?`, id); err != nil {
		return fmt.Errorf("delete expense instances: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense definition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete expense definition %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Expense definition deleted with cascade", "id", id)
	return nil
}

func (r *SQLiteRepository) GetDefinition(ctx context.Context, id string) (core.ExpenseDefinition, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, amount_cents, first_due_date, recurrence,
			custom_recurrence_days, category, notes, created_at, updated_at
		FROM expenses WHERE id = ?`, id)

	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseDefinition{}, fmt.Errorf("expense definition %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("get expense definition: %w", err)
	}
	return def, nil
}

// ListDefinitions returns all definitions in creation order.
func (r *SQLiteRepository) ListDefinitions(ctx context.Context) ([]core.ExpenseDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, first_due_date, recurrence,
			custom_recurrence_days, category, notes, created_at, updated_at
		FROM expenses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list expense definitions: %w", err)
	}
	defer rows.Close()

	var defs []core.ExpenseDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense definition: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// InsertInstances stores newly generated instances in one transaction and
// returns how many were actually inserted. The unique (expense_id, due_date)
// constraint backs the generator's dedup contract; conflicts are skipped,
// not errors, so regeneration stays idempotent under races.
func (r *SQLiteRepository) InsertInstances(ctx context.Context, instances []core.ExpenseInstance) (int, error) {
	if len(instances) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expense_instances (id, expense_id, due_date, status, paid_at, snoozed_until, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (expense_id, due_date) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare instance insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, inst := range instances {
		res, err := stmt.ExecContext(ctx,
			inst.ID, inst.ExpenseID, inst.DueDate.Format(dateLayout),
			string(inst.Status), nullTime(inst.PaidAt), nullDate(inst.SnoozedUntil),
			boolToInt(inst.Skipped))
		if err != nil {
			return 0, fmt.Errorf("insert expense instance: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert transaction: %w", err)
	}
	return inserted, nil
}

func (r *SQLiteRepository) GetInstance(ctx context.Context, id string) (core.ExpenseInstance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, expense_id, due_date, status, paid_at, snoozed_until, skipped
		FROM expense_instances WHERE id = ?`, id)

	inst, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseInstance{}, fmt.Errorf("expense instance %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("get expense instance: %w", err)
	}
	return inst, nil
}

// ListInstances returns all instances in insertion order, which is what the
// aggregation layer's stable sorts break ties on.
func (r *SQLiteRepository) ListInstances(ctx context.Context) ([]core.ExpenseInstance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, expense_id, due_date, status, paid_at, snoozed_until, skipped
		FROM expense_instances ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list expense instances: %w", err)
	}
	defer rows.Close()

	var instances []core.ExpenseInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense instance: %w", err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// UpdateInstance persists a lifecycle transition: status, paid_at,
// snoozed_until, and the skipped audit flag.
func (r *SQLiteRepository) UpdateInstance(ctx context.Context, inst core.ExpenseInstance) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expense_instances
		SET status = ?, paid_at = ?, snoozed_until = ?, skipped = ?
		WHERE id = ?`,
		string(inst.Status), nullTime(inst.PaidAt), nullDate(inst.SnoozedUntil),
		boolToInt(inst.Skipped), inst.ID)
	if err != nil {
		return fmt.Errorf("update expense instance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update expense instance %s: %w", inst.ID, ErrNotFound)
	}
	return nil
}

// Snapshot is the whole persisted state, loaded in one read. The aggregation
// layer and the backup exporter work from snapshots, never from live rows.
type Snapshot struct {
	Definitions []core.ExpenseDefinition
	Instances   []core.ExpenseInstance
	Settings    core.AppSettings
}

func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	defs, err := r.ListDefinitions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	instances, err := r.ListInstances(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	settings, err := r.GetSettings(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Definitions: defs, Instances: instances, Settings: settings}, nil
}

// ReplaceAll swaps the entire store content for an imported snapshot in one
// transaction. Import is all-or-nothing; a failure leaves the previous state
// untouched.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, snap Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_instances`); err != nil {
		return fmt.Errorf("clear expense instances: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expense definitions: %w", err)
	}

	for _, def := range snap.Definitions {
		createdAt := def.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		updatedAt := def.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, name, amount_cents, first_due_date, recurrence,
				custom_recurrence_days, category, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			def.ID, def.Name, def.Amount.Cents, def.FirstDueDate.Format(dateLayout),
			string(def.Recurrence), def.CustomRecurrenceDays, string(def.Category),
			def.Notes, createdAt.Format(timeLayout), updatedAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("import expense definition %s: %w", def.ID, err)
		}
	}

	for _, inst := range snap.Instances {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expense_instances (id, expense_id, due_date, status, paid_at, snoozed_until, skipped)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			inst.ID, inst.ExpenseID, inst.DueDate.Format(dateLayout),
			string(inst.Status), nullTime(inst.PaidAt), nullDate(inst.SnoozedUntil),
			boolToInt(inst.Skipped)); err != nil {
			return fmt.Errorf("import expense instance %s: %w", inst.ID, err)
		}
	}

	if err := saveSettingsTx(ctx, tx, snap.Settings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import transaction: %w", err)
	}

	slog.InfoContext(ctx, "Store replaced from import",
		"definitions", len(snap.Definitions),
		"instances", len(snap.Instances))
	return nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.AppSettings, error) {
	var (
		s        core.AppSettings
		enabled  int
		channels string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT theme, currency, language, notifications_enabled,
			notification_days_before, notification_channels
		FROM settings WHERE id = 1`).
		Scan(&s.Theme, &s.Currency, &s.Language, &enabled, &s.Notifications.DaysBefore, &channels)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.AppSettings{}, fmt.Errorf("get settings: %w", err)
	}
	s.Notifications.Enabled = enabled != 0
	if channels != "" {
		s.Notifications.Channels = strings.Split(channels, ",")
	}
	return s, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.AppSettings) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveSettingsTx(ctx, tx, s); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings transaction: %w", err)
	}
	return nil
}

func saveSettingsTx(ctx context.Context, tx *sql.Tx, s core.AppSettings) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO settings (id, theme, currency, language, notifications_enabled,
			notification_days_before, notification_channels)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			theme = excluded.theme,
			currency = excluded.currency,
			language = excluded.language,
			notifications_enabled = excluded.notifications_enabled,
			notification_days_before = excluded.notification_days_before,
			notification_channels = excluded.notification_channels`,
		s.Theme, s.Currency, s.Language, boolToInt(s.Notifications.Enabled),
		s.Notifications.DaysBefore, strings.Join(s.Notifications.Channels, ","))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDefinition(row scannable) (core.ExpenseDefinition, error) {
	var (
		def                  core.ExpenseDefinition
		firstDue             string
		recurrence, category string
		createdAt, updatedAt string
	)
	err := row.Scan(&def.ID, &def.Name, &def.Amount.Cents, &firstDue, &recurrence,
		&def.CustomRecurrenceDays, &category, &def.Notes, &createdAt, &updatedAt)
	if err != nil {
		return core.ExpenseDefinition{}, err
	}

	if def.FirstDueDate, err = core.ParseDate(firstDue); err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("parse first due date %q: %w", firstDue, err)
	}
	def.Recurrence = core.RecurrenceType(recurrence)
	def.Category = core.Category(category)
	if def.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if def.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return core.ExpenseDefinition{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return def, nil
}

func scanInstance(row scannable) (core.ExpenseInstance, error) {
	var (
		inst         core.ExpenseInstance
		dueDate      string
		status       string
		paidAt       sql.NullString
		snoozedUntil sql.NullString
		skipped      int
	)
	err := row.Scan(&inst.ID, &inst.ExpenseID, &dueDate, &status, &paidAt, &snoozedUntil, &skipped)
	if err != nil {
		return core.ExpenseInstance{}, err
	}

	if inst.DueDate, err = core.ParseDate(dueDate); err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("parse due date %q: %w", dueDate, err)
	}
	inst.Status = core.InstanceStatus(status)
	inst.Skipped = skipped != 0

	if paidAt.Valid {
		t, err := time.Parse(timeLayout, paidAt.String)
		if err != nil {
			return core.ExpenseInstance{}, fmt.Errorf("parse paid_at %q: %w", paidAt.String, err)
		}
		inst.PaidAt = &t
	}
	if snoozedUntil.Valid {
		d, err := core.ParseDate(snoozedUntil.String)
		if err != nil {
			return core.ExpenseInstance{}, fmt.Errorf("parse snoozed_until %q: %w", snoozedUntil.String, err)
		}
		inst.SnoozedUntil = &d
	}
	return inst, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(timeLayout)
}

func nullDate(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
