package backup

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/PiperGuy/panic-pocket/internal/core"
	"github.com/PiperGuy/panic-pocket/internal/storage"
)

// FormatVersion is written into every export and checked on import.
const FormatVersion = "1.0.0"

const nonceSize = 12

var (
	ErrMalformedFile  = errors.New("not a valid backup file")
	ErrCannotDecrypt  = errors.New("cannot decrypt backup: wrong password or corrupt data")
	ErrWeakPassword   = errors.New("password must be at least 8 characters with a letter and a digit")
	ErrNotEncrypted   = errors.New("backup is not encrypted")
	ErrPasswordNeeded = errors.New("backup is encrypted, password required")
)

// Document is the plain export envelope.
type Document struct {
	Version          string                   `json:"version"`
	ExportedAt       time.Time                `json:"exportedAt"`
	Expenses         []core.ExpenseDefinition `json:"expenses"`
	ExpenseInstances []core.ExpenseInstance   `json:"expenseInstances"`
	Settings         core.AppSettings         `json:"settings"`
}

// EncryptedDocument wraps an encrypted Document. Data is
// base64(nonce || ciphertext) under AES-256-GCM with key SHA-256(password).
type EncryptedDocument struct {
	Version     string    `json:"version"`
	EncryptedAt time.Time `json:"encryptedAt"`
	Encrypted   bool      `json:"encrypted"`
	Data        string    `json:"data"`
}

// SnapshotStore is the repository surface backup needs: whole-state read
// for export, atomic whole-state replace for import.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (storage.Snapshot, error)
	ReplaceAll(ctx context.Context, snap storage.Snapshot) error
}

// ValidatePassword enforces the export password policy.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

// Export serializes the full store state as a plain JSON document.
func Export(ctx context.Context, store SnapshotStore, now time.Time) ([]byte, error) {
	doc, err := buildDocument(ctx, store, now)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}

// ExportEncrypted serializes the full store state encrypted under password.
func ExportEncrypted(ctx context.Context, store SnapshotStore, password string, now time.Time) ([]byte, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	doc, err := buildDocument(ctx, store, now)
	if err != nil {
		return nil, err
	}
	plain, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	sealed, err := encrypt(plain, password)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	wrapper := EncryptedDocument{
		Version:     FormatVersion,
		EncryptedAt: now.UTC(),
		Encrypted:   true,
		Data:        sealed,
	}
	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}

// IsEncrypted reports whether the file is an encrypted export.
func IsEncrypted(data []byte) bool {
	var probe struct {
		Encrypted bool `json:"encrypted"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Encrypted
}

// Import replaces the entire store state with the document's contents.
// Either everything is imported or nothing is.
func Import(ctx context.Context, store SnapshotStore, data []byte) error {
	doc, err := decodeDocument(data)
	if err != nil {
		return err
	}
	return replace(ctx, store, doc)
}

// ImportEncrypted decrypts and imports an encrypted export.
func ImportEncrypted(ctx context.Context, store SnapshotStore, data []byte, password string) error {
	var wrapper EncryptedDocument
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if !wrapper.Encrypted || wrapper.Data == "" {
		return ErrNotEncrypted
	}
	plain, err := decrypt(wrapper.Data, password)
	if err != nil {
		return err
	}
	doc, err := decodeDocument(plain)
	if err != nil {
		return err
	}
	return replace(ctx, store, doc)
}

func buildDocument(ctx context.Context, store SnapshotStore, now time.Time) (Document, error) {
	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export: %w", err)
	}
	return Document{
		Version:          FormatVersion,
		ExportedAt:       now.UTC(),
		Expenses:         snap.Definitions,
		ExpenseInstances: snap.Instances,
		Settings:         snap.Settings,
	}, nil
}

// decodeDocument parses a plain export and rejects files missing any of the
// required sections. A shadow struct with pointer fields distinguishes
// "absent" from "empty".
func decodeDocument(data []byte) (Document, error) {
	var probe struct {
		Version          *string                   `json:"version"`
		Expenses         *[]core.ExpenseDefinition `json:"expenses"`
		ExpenseInstances *[]core.ExpenseInstance   `json:"expenseInstances"`
		Settings         *core.AppSettings         `json:"settings"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if probe.Version == nil || probe.Expenses == nil || probe.ExpenseInstances == nil || probe.Settings == nil {
		return Document{}, ErrMalformedFile
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return doc, nil
}

func replace(ctx context.Context, store SnapshotStore, doc Document) error {
	snap := storage.Snapshot{
		Definitions: doc.Expenses,
		Instances:   doc.ExpenseInstances,
		Settings:    doc.Settings,
	}
	if err := store.ReplaceAll(ctx, snap); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

func encrypt(plain []byte, password string) (string, error) {
	gcm, err := newGCM(password)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func decrypt(encoded, password string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if len(raw) <= nonceSize {
		return nil, ErrMalformedFile
	}
	gcm, err := newGCM(password)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, ErrCannotDecrypt
	}
	return plain, nil
}

// newGCM derives the AES-256 key as SHA-256(password), matching the export
// format other clients of these files use.
func newGCM(password string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(password))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
