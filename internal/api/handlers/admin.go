package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/internal/results"
	"github.com/wonny/podium/backend/internal/season"
	"github.com/wonny/podium/backend/internal/settlement"
	"github.com/wonny/podium/backend/internal/standings"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/metrics"
)

// AdminHandler handles operator endpoints: lockout overrides, manual
// settlement and results ingestion
type AdminHandler struct {
	calendar  contracts.CalendarRepository
	season    *season.Service
	results   *results.Service
	settler   *settlement.Settler
	standings *standings.Service
	metrics   *metrics.Manager
	logger    *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	calendar contracts.CalendarRepository,
	seasonSvc *season.Service,
	resultsSvc *results.Service,
	settler *settlement.Settler,
	standingsSvc *standings.Service,
	mm *metrics.Manager,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		calendar:  calendar,
		season:    seasonSvc,
		results:   resultsSvc,
		settler:   settler,
		standings: standingsSvc,
		metrics:   mm,
		logger:    log,
	}
}

// OverrideRequest represents a lockout override request
type OverrideRequest struct {
	Override string `json:"override"` // "locked", "unlocked" or "" to clear
}

// SetLockoutOverride forces the lockout state regardless of the
// session schedule
// PUT /api/v1/admin/lockout-override
func (h *AdminHandler) SetLockoutOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	override := contracts.LockoutOverride(req.Override)
	switch override {
	case contracts.OverrideNone, contracts.OverrideLocked, contracts.OverrideUnlocked:
	default:
		respondError(w, http.StatusBadRequest, "Invalid override (valid: locked, unlocked, empty to clear)")
		return
	}

	if err := h.season.SetOverride(ctx, 0, override); err != nil {
		h.logger.WithError(err).Error("Failed to set lockout override")
		respondError(w, http.StatusInternalServerError, "Failed to set lockout override")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]string{"override": req.Override},
	})
}

// SettleRace scores all teams and reprices the market for one race
// POST /api/v1/admin/settle/{raceId}
func (h *AdminHandler) SettleRace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raceID, err := strconv.ParseInt(mux.Vars(r)["raceId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid race ID")
		return
	}

	if err := h.settler.SettleRace(ctx, raceID); err != nil {
		h.logger.WithError(err).Error("Settlement failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.metrics.RecordSettlement()
	if err := h.standings.Refresh(ctx, h.season.Season()); err != nil {
		h.logger.WithError(err).Warn("Failed to refresh standings after settlement")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]int64{"race_id": raceID},
	})
}

// RecomputeSeason rebuilds every price and score from the stored
// official results
// POST /api/v1/admin/recompute
func (h *AdminHandler) RecomputeSeason(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seasonYear := h.season.Season()

	if err := h.settler.RecomputeSeason(ctx, seasonYear); err != nil {
		h.logger.WithError(err).Error("Season recompute failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.standings.Refresh(ctx, seasonYear); err != nil {
		h.logger.WithError(err).Warn("Failed to refresh standings after recompute")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]int{"season": seasonYear},
	})
}

// SyncSchedule pulls the season calendar from the results feed
// POST /api/v1/admin/sync-schedule
func (h *AdminHandler) SyncSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.results.SyncSchedule(ctx, h.season.Season())
	if err != nil {
		h.logger.WithError(err).Error("Schedule sync failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]int{"races": count},
	})
}

// IngestRace pulls the published results for one race
// POST /api/v1/admin/ingest/{raceId}
func (h *AdminHandler) IngestRace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raceID, err := strconv.ParseInt(mux.Vars(r)["raceId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid race ID")
		return
	}

	race, err := h.calendar.GetByID(ctx, raceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Race not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load race")
		respondError(w, http.StatusInternalServerError, "Failed to load race")
		return
	}

	count, err := h.results.IngestRace(ctx, race)
	if err != nil {
		h.logger.WithError(err).Error("Results ingestion failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]int{"results": count},
	})
}
