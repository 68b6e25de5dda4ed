package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/cache"
	"storefront/internal/database"
	"storefront/internal/hours"
	"storefront/internal/seasonal"
)

const (
	defaultTransitionsLimit = 50
	maxTransitionsLimit     = 500
	dateLayout              = "2006-01-02"
)

// HoursResponse is returned by the hours endpoints.
type HoursResponse struct {
	Store    string       `json:"store"`
	Timezone string       `json:"timezone"`
	Status   hours.Status `json:"status"`
}

// SeasonResponse is returned by the season endpoints.
type SeasonResponse struct {
	Store   string         `json:"store"`
	Date    string         `json:"date"`
	ThemeID string         `json:"theme_id"`
	State   seasonal.State `json:"state"`
}

// TransitionsResponse is returned by GET /api/v1/transitions.
type TransitionsResponse struct {
	Transitions []database.Transition `json:"transitions"`
}

// handleHours returns the latest refreshed status.
// GET /api/v1/hours
func (s *HTTPServer) handleHours(w http.ResponseWriter, r *http.Request) {
	st, ok := s.status.Hours()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "status not computed yet")
		return
	}
	writeJSON(w, http.StatusOK, s.hoursResponse(st))
}

// handleHoursAt resolves the status for ?time=RFC3339, cached per minute.
// GET /api/v1/hours/at
func (s *HTTPServer) handleHoursAt(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("time")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "time is required")
		return
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time format; expected RFC3339")
		return
	}
	at = at.Truncate(time.Minute)

	key := s.cache.Key("hours", "at", strconv.FormatInt(at.Unix(), 10))
	st := cache.Remember(r.Context(), s.cache, key, time.Minute, func() hours.Status {
		return s.status.HoursAt(at)
	})
	writeJSON(w, http.StatusOK, s.hoursResponse(st))
}

func (s *HTTPServer) hoursResponse(st hours.Status) HoursResponse {
	store := s.status.Store()
	return HoursResponse{Store: store.Name, Timezone: store.Timezone, Status: st}
}

// handleSeason returns the latest refreshed seasonal state.
// GET /api/v1/season
func (s *HTTPServer) handleSeason(w http.ResponseWriter, r *http.Request) {
	st, day, ok := s.status.Season()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "season not computed yet")
		return
	}
	writeJSON(w, http.StatusOK, s.seasonResponse(day.Format(dateLayout), st))
}

// handleSeasonAt evaluates the theme table for ?date=YYYY-MM-DD.
// GET /api/v1/season/at
func (s *HTTPServer) handleSeasonAt(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	store := s.status.Store()
	day, err := time.ParseInLocation(dateLayout, raw, store.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, s.seasonResponse(raw, s.status.SeasonAt(day)))
}

func (s *HTTPServer) seasonResponse(date string, st seasonal.State) SeasonResponse {
	id := st.ThemeID()
	if id == "" {
		id = seasonal.DefaultThemeID
	}
	return SeasonResponse{Store: s.status.Store().Name, Date: date, ThemeID: id, State: st}
}

// handleTransitions lists recent journal rows, newest first.
// GET /api/v1/transitions
func (s *HTTPServer) handleTransitions(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal disabled")
		return
	}

	limit := defaultTransitionsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTransitionsLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	rows, err := s.journal.ListTransitions(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list transitions")
		writeError(w, http.StatusInternalServerError, "failed to list transitions")
		return
	}
	if rows == nil {
		rows = []database.Transition{}
	}
	writeJSON(w, http.StatusOK, TransitionsResponse{Transitions: rows})
}

// GET /healthz
func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 200 once snapshots exist and every registered check passes.
// GET /readyz
func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := make(map[string]string)
	if !s.status.Ready() {
		failures["status"] = "snapshots not computed"
	}

	s.checksMu.RLock()
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	s.checksMu.RUnlock()

	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"failures": failures,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
