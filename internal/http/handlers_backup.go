package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/backup"
)

type exportRequest struct {
	Password string `json:"password,omitempty"`
}

// handleExport writes a backup file. With a password the file is encrypted;
// without one it is plain JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req exportRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	now := time.Now()
	var data []byte
	var err error
	if req.Password != "" {
		data, err = backup.ExportEncrypted(r.Context(), s.store, req.Password, now)
	} else {
		data, err = backup.Export(r.Context(), s.store, now)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err, "encrypted", req.Password != "")
		writeDomainError(w, err)
		return
	}

	if s.recorder != nil {
		s.recorder.Track(r.Context(), "data_exported", map[string]any{
			"encrypted": req.Password != "",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="pocket-backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type importRequest struct {
	Data     json.RawMessage `json:"data"`
	Password string          `json:"password,omitempty"`
}

// handleImport replaces the whole store with the posted backup file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "missing backup data")
		return
	}

	var err error
	if backup.IsEncrypted(req.Data) {
		if req.Password == "" {
			writeDomainError(w, backup.ErrPasswordNeeded)
			return
		}
		err = backup.ImportEncrypted(r.Context(), s.store, req.Data, req.Password)
	} else {
		err = backup.Import(r.Context(), s.store, req.Data)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed", "error", err)
		writeDomainError(w, err)
		return
	}

	if s.recorder != nil {
		s.recorder.Track(r.Context(), "data_imported", nil)
	}
	s.invalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}
