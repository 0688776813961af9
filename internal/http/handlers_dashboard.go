package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/core"
	"github.com/PiperGuy/panic-pocket/internal/services"
	"github.com/PiperGuy/panic-pocket/internal/storage"
)

const upcomingLimit = 10

type dashboardResponse struct {
	Upcoming       []services.InstanceView  `json:"upcoming"`
	Summary        core.MonthlySummary      `json:"summary"`
	RecentActivity []storage.AnalyticsEvent `json:"recentActivity"`
}

// handleDashboard returns the landing view: upcoming payments, the current
// month's totals, and recent activity. Cached briefly.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	const cacheKey = "dashboard"
	if cached, ok := s.dashboardCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
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

	resp := dashboardResponse{
		Upcoming: services.Upcoming(views, now, upcomingLimit),
		Summary:  services.MonthlySummary(views, now.Year(), now.Month()),
	}
	if resp.Upcoming == nil {
		resp.Upcoming = []services.InstanceView{}
	}

	if s.recorder != nil {
		recent, err := s.recorder.Recent(r.Context(), upcomingLimit)
		if err != nil {
			slog.WarnContext(r.Context(), "Failed to load recent activity", "error", err)
		} else {
			resp.RecentActivity = recent
		}
	}
	if resp.RecentActivity == nil {
		resp.RecentActivity = []storage.AnalyticsEvent{}
	}

	s.dashboardCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleSummary returns the month addressed by ?year=&month=, defaulting to
// the current month. Results are cached until the next mutation.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	year, month := parseYearMonth(r)
	cacheKey := fmt.Sprintf("%04d-%02d", year, month)
	if cached, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
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

	summary := services.MonthlySummary(services.Join(defs, instances, time.Now()), year, month)
	s.summaryCache.Set(cacheKey, summary)
	writeJSON(w, http.StatusOK, summary)
}
