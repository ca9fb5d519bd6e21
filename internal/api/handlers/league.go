package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/podium/backend/internal/results"
	"github.com/wonny/podium/backend/internal/season"
	"github.com/wonny/podium/backend/internal/standings"
	"github.com/wonny/podium/backend/pkg/logger"
)

// LeagueHandler handles calendar, lockout, standings and results
// API endpoints
type LeagueHandler struct {
	season    *season.Service
	standings *standings.Service
	results   *results.Service
	logger    *logger.Logger
}

// NewLeagueHandler creates a new league handler
func NewLeagueHandler(
	seasonSvc *season.Service,
	standingsSvc *standings.Service,
	resultsSvc *results.Service,
	log *logger.Logger,
) *LeagueHandler {
	return &LeagueHandler{
		season:    seasonSvc,
		standings: standingsSvc,
		results:   resultsSvc,
		logger:    log,
	}
}

// GetCalendar returns the season race calendar
// GET /api/v1/season/calendar?season=2026
func (h *LeagueHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	seasonYear, ok := parseSeason(w, r)
	if !ok {
		return
	}

	races, err := h.season.Calendar(ctx, seasonYear)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get calendar")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve calendar")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    races,
	})
}

// GetNextRace returns the next uncompleted race; data is null once the
// season is over
// GET /api/v1/season/next-race
func (h *LeagueHandler) GetNextRace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	race, err := h.season.NextRace(ctx, 0)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get next race")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve next race")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    race,
	})
}

// GetLockout returns the roster lockout state for the next race
// GET /api/v1/season/lockout
func (h *LeagueHandler) GetLockout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := h.season.Status(ctx, 0)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get lockout status")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve lockout status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    info,
	})
}

// GetStandings returns the season leaderboard
// GET /api/v1/season/standings?season=2026
func (h *LeagueHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	seasonYear, ok := parseSeason(w, r)
	if !ok {
		return
	}
	if seasonYear == 0 {
		seasonYear = h.season.Season()
	}

	rows, err := h.standings.Standings(ctx, seasonYear)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get standings")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve standings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rows,
	})
}

// GetRaceResults returns the published grand prix classification
// GET /api/v1/races/{id}/results
func (h *LeagueHandler) GetRaceResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raceID, ok := parseRaceID(w, r)
	if !ok {
		return
	}

	raceResults, err := h.results.RaceResults(ctx, raceID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get race results")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve race results")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    raceResults,
	})
}

// GetSprintResults returns the published sprint classification
// GET /api/v1/races/{id}/sprint
func (h *LeagueHandler) GetSprintResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raceID, ok := parseRaceID(w, r)
	if !ok {
		return
	}

	sprintResults, err := h.results.SprintResults(ctx, raceID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get sprint results")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve sprint results")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    sprintResults,
	})
}

func parseSeason(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("season")
	if raw == "" {
		return 0, true
	}

	seasonYear, err := strconv.Atoi(raw)
	if err != nil || seasonYear < 1950 {
		respondError(w, http.StatusBadRequest, "Invalid season")
		return 0, false
	}
	return seasonYear, true
}

func parseRaceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raceID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid race ID")
		return 0, false
	}
	return raceID, true
}
