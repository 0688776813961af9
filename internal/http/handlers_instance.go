package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
	"github.com/PiperGuy/panic-pocket/internal/services"
)

// handleInstances lists instance views with optional filter and sort
// parameters: category, status, from, to, search, sortBy, order.
func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	defs, err := s.store.ListDefinitions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	instances, err := s.store.ListInstances(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	views := services.Join(defs, instances, now)

	criteria, err := parseFilterCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	views = services.Filter(views, criteria)

	field := services.SortField(strings.TrimSpace(r.URL.Query().Get("sortBy")))
	if field == "" {
		field = services.SortByDueDate
	}
	descending := strings.EqualFold(r.URL.Query().Get("order"), "desc")
	services.Sort(views, field, descending)

	if views == nil {
		views = []services.InstanceView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func parseFilterCriteria(r *http.Request) (services.FilterCriteria, error) {
	q := r.URL.Query()
	criteria := services.FilterCriteria{
		Category: core.Category(strings.TrimSpace(q.Get("category"))),
		Status:   core.InstanceStatus(strings.TrimSpace(q.Get("status"))),
		Search:   sanitizeInput(q.Get("search")),
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return services.FilterCriteria{}, err
		}
		criteria.From = &d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return services.FilterCriteria{}, err
		}
		criteria.To = &d
	}
	return criteria, nil
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	inst, err := s.lifecycle.MarkPaid(r.Context(), id, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to mark instance paid", "error", err, "id", id)
		writeDomainError(w, err)
		return
	}
	s.track(r, "expense_paid", inst)
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, inst)
}

type snoozeRequest struct {
	Until *core.Date `json:"until"`
}

func (s *Server) handleSnooze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req snoozeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inst, err := s.lifecycle.Snooze(r.Context(), id, req.Until)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to snooze instance", "error", err, "id", id)
		writeDomainError(w, err)
		return
	}
	s.track(r, "expense_snoozed", inst)
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	inst, err := s.lifecycle.Skip(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to skip instance", "error", err, "id", id)
		writeDomainError(w, err)
		return
	}
	s.track(r, "expense_skipped", inst)
	s.invalidateCaches()
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) track(r *http.Request, event string, inst core.ExpenseInstance) {
	if s.recorder == nil {
		return
	}
	s.recorder.Track(r.Context(), event, map[string]any{
		"instanceId": inst.ID,
		"expenseId":  inst.ExpenseID,
	})
}
