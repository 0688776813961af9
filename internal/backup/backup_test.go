package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
	"github.com/PiperGuy/panic-pocket/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	snap storage.Snapshot
}

func (m *memStore) LoadSnapshot(context.Context) (storage.Snapshot, error) { return m.snap, nil }
func (m *memStore) ReplaceAll(_ context.Context, snap storage.Snapshot) error {
	m.snap = snap
	return nil
}

func fixtureStore() *memStore {
	return &memStore{snap: storage.Snapshot{
		Definitions: []core.ExpenseDefinition{{
			ID: "e1", Name: "Rent", Amount: core.Money{Cents: 120000},
			FirstDueDate: core.NewDate(2024, 1, 1), Recurrence: core.RecurrenceMonthly,
			Category: core.CategoryRent,
		}},
		Instances: []core.ExpenseInstance{{
			ID: "i1", ExpenseID: "e1", DueDate: core.NewDate(2024, 1, 1), Status: core.StatusPending,
		}},
		Settings: core.DefaultSettings(),
	}}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := fixtureStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	data, err := Export(context.Background(), src, now)
	require.NoError(t, err)
	assert.False(t, IsEncrypted(data))

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, FormatVersion, doc.Version)
	assert.True(t, doc.ExportedAt.Equal(now))

	dst := &memStore{}
	require.NoError(t, Import(context.Background(), dst, data))
	require.Len(t, dst.snap.Definitions, 1)
	assert.Equal(t, "Rent", dst.snap.Definitions[0].Name)
	assert.Equal(t, int64(120000), dst.snap.Definitions[0].Amount.Cents)
	require.Len(t, dst.snap.Instances, 1)
	assert.Equal(t, "e1", dst.snap.Instances[0].ExpenseID)
	assert.Equal(t, "USD", dst.snap.Settings.Currency)
}

func TestEncryptedRoundTrip(t *testing.T) {
	src := fixtureStore()
	now := time.Now()

	data, err := ExportEncrypted(context.Background(), src, "hunter2024", now)
	require.NoError(t, err)
	assert.True(t, IsEncrypted(data))

	var wrapper EncryptedDocument
	require.NoError(t, json.Unmarshal(data, &wrapper))
	assert.True(t, wrapper.Encrypted)
	assert.NotContains(t, wrapper.Data, "Rent", "plaintext leaked into ciphertext")

	dst := &memStore{}
	require.NoError(t, ImportEncrypted(context.Background(), dst, data, "hunter2024"))
	require.Len(t, dst.snap.Definitions, 1)
	assert.Equal(t, "Rent", dst.snap.Definitions[0].Name)
}

func TestImportEncryptedWrongPassword(t *testing.T) {
	src := fixtureStore()
	data, err := ExportEncrypted(context.Background(), src, "hunter2024", time.Now())
	require.NoError(t, err)

	dst := &memStore{}
	err = ImportEncrypted(context.Background(), dst, data, "wrongpass1")
	assert.ErrorIs(t, err, ErrCannotDecrypt)
	assert.Empty(t, dst.snap.Definitions, "nothing may be imported on failure")
}

func TestImportMalformed(t *testing.T) {
	dst := &memStore{}
	tests := []struct {
		name string
		data string
	}{
		{"not json", "definitely not json"},
		{"empty object", "{}"},
		{"missing instances", `{"version":"1.0.0","expenses":[],"settings":{}}`},
		{"missing settings", `{"version":"1.0.0","expenses":[],"expenseInstances":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Import(context.Background(), dst, []byte(tt.data))
			assert.ErrorIs(t, err, ErrMalformedFile)
		})
	}
}

func TestImportEncryptedOnPlainFile(t *testing.T) {
	src := fixtureStore()
	plain, err := Export(context.Background(), src, time.Now())
	require.NoError(t, err)

	err = ImportEncrypted(context.Background(), &memStore{}, plain, "hunter2024")
	assert.ErrorIs(t, err, ErrNotEncrypted)
}

func TestExportEncryptedRejectsWeakPassword(t *testing.T) {
	src := fixtureStore()
	for _, password := range []string{"", "short1", "onlyletters", "12345678"} {
		_, err := ExportEncrypted(context.Background(), src, password, time.Now())
		assert.ErrorIs(t, err, ErrWeakPassword, "password %q", password)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"hunter2024", true},
		{"a1b2c3d4", true},
		{"pässwörd1", true},
		{"short1a", false},
		{"allletters", false},
		{"1234567890", false},
	}
	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if tt.ok {
			assert.NoError(t, err, "password %q", tt.password)
		} else {
			assert.ErrorIs(t, err, ErrWeakPassword, "password %q", tt.password)
		}
	}
}
