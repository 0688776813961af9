package http

import (
	"log/slog"
	"net/http"

	"github.com/PiperGuy/panic-pocket/internal/core"
)

type expenseRequest struct {
	Name                 string              `json:"name"`
	Amount               core.Money          `json:"amount"`
	FirstDueDate         core.Date           `json:"firstDueDate"`
	Recurrence           core.RecurrenceType `json:"recurrence"`
	CustomRecurrenceDays int                 `json:"customRecurrence,omitempty"`
	Category             core.Category       `json:"category"`
	Notes                string              `json:"notes,omitempty"`
}

func (req expenseRequest) toDefinition() core.ExpenseDefinition {
	return core.ExpenseDefinition{
		Name:                 sanitizeInput(req.Name),
		Amount:               req.Amount,
		FirstDueDate:         req.FirstDueDate,
		Recurrence:           req.Recurrence,
		CustomRecurrenceDays: req.CustomRecurrenceDays,
		Category:             req.Category,
		Notes:                sanitizeInput(req.Notes),
	}
}

// handleExpenses serves the collection: GET lists, POST creates.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		defs, err := s.expenses.List(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to list expenses", "error", err)
			writeDomainError(w, err)
			return
		}
		if defs == nil {
			defs = []core.ExpenseDefinition{}
		}
		writeJSON(w, http.StatusOK, defs)

	case http.MethodPost:
		var req expenseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := s.expenses.Add(r.Context(), req.toDefinition())
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to create expense", "error", err, "name", req.Name)
			writeDomainError(w, err)
			return
		}
		s.invalidateCaches()
		writeJSON(w, http.StatusCreated, created)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleExpense serves one definition addressed by ?id.
func (s *Server) handleExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		def, err := s.expenses.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, def)

	case http.MethodPut:
		var req expenseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		def := req.toDefinition()
		def.ID = id
		// Carry the original creation time through the update.
		existing, err := s.expenses.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		def.CreatedAt = existing.CreatedAt
		updated, err := s.expenses.Update(r.Context(), def)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to update expense", "error", err, "id", id)
			writeDomainError(w, err)
			return
		}
		s.invalidateCaches()
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.expenses.Delete(r.Context(), id); err != nil {
			slog.ErrorContext(r.Context(), "Failed to delete expense", "error", err, "id", id)
			writeDomainError(w, err)
			return
		}
		s.invalidateCaches()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
