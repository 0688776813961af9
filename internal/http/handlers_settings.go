package http

import (
	"log/slog"
	"net/http"

	"github.com/PiperGuy/panic-pocket/internal/core"
)

// handleSettings serves the single app settings row.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.store.GetSettings(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var settings core.AppSettings
		if err := decodeJSON(r, &settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if settings.Notifications.DaysBefore < 0 {
			writeError(w, http.StatusUnprocessableEntity, "daysBefore must not be negative")
			return
		}
		if err := s.store.SaveSettings(r.Context(), settings); err != nil {
			slog.ErrorContext(r.Context(), "Failed to save settings", "error", err)
			writeDomainError(w, err)
			return
		}
		if s.recorder != nil {
			s.recorder.Track(r.Context(), "settings_updated", map[string]any{
				"theme":    settings.Theme,
				"currency": settings.Currency,
			})
		}
		s.invalidateCaches()
		writeJSON(w, http.StatusOK, settings)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}
