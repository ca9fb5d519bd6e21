package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/internal/roster"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/metrics"
)

// RosterHandler handles fantasy team API endpoints
type RosterHandler struct {
	roster  *roster.Service
	metrics *metrics.Manager
	logger  *logger.Logger
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(svc *roster.Service, mm *metrics.Manager, log *logger.Logger) *RosterHandler {
	return &RosterHandler{
		roster:  svc,
		metrics: mm,
		logger:  log,
	}
}

// CreateTeamRequest represents a team registration request
type CreateTeamRequest struct {
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
}

// CreateTeam registers a new fantasy team
// POST /api/v1/teams
func (h *RosterHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Team name is required")
		return
	}

	team, err := h.roster.CreateTeam(ctx, req.Name, req.OwnerName)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create team")
		respondError(w, http.StatusInternalServerError, "Failed to create team")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    team,
	})
}

// ListTeams returns every registered team
// GET /api/v1/teams
func (h *RosterHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teams, err := h.roster.Teams(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list teams")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve teams")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    teams,
	})
}

// GetTeam returns one team with its roster and live prices
// GET /api/v1/teams/{id}
func (h *RosterHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}

	team, err := h.roster.Team(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Team not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get team")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve team")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    team,
	})
}

// AddAssetRequest represents an asset purchase request
type AddAssetRequest struct {
	AssetID string `json:"asset_id"`
	Kind    string `json:"kind"` // "driver" or "constructor"
}

// AddAsset buys a driver or constructor onto the roster
// POST /api/v1/teams/{id}/assets
func (h *RosterHandler) AddAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}

	var req AddAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind := contracts.AssetKind(req.Kind)
	if kind != contracts.KindDriver && kind != contracts.KindConstructor {
		respondError(w, http.StatusBadRequest, "Invalid kind (valid: driver, constructor)")
		return
	}

	team, err := h.roster.AddAsset(ctx, teamID, req.AssetID, kind)
	if err != nil {
		h.respondRosterError(w, err, "add_asset", "Failed to add asset")
		return
	}

	h.metrics.RecordRosterEdit("add_asset", "ok")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    team,
	})
}

// RemoveAsset sells an asset off the roster and banks its value capture
// DELETE /api/v1/teams/{id}/assets/{assetId}
func (h *RosterHandler) RemoveAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}
	assetID := mux.Vars(r)["assetId"]

	receipt, err := h.roster.RemoveAsset(ctx, teamID, assetID)
	if err != nil {
		h.respondRosterError(w, err, "remove_asset", "Failed to remove asset")
		return
	}

	h.metrics.RecordRosterEdit("remove_asset", "ok")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    receipt,
	})
}

// SwapAssetRequest represents a sell-then-buy transfer request
type SwapAssetRequest struct {
	SellID string `json:"sell_id"`
	BuyID  string `json:"buy_id"`
}

// SwapAssetResponse pairs the updated team with the sale receipt
type SwapAssetResponse struct {
	Team    *contracts.Team     `json:"team"`
	Receipt *roster.SaleReceipt `json:"receipt"`
}

// SwapAsset sells one asset and buys another in a single transfer
// POST /api/v1/teams/{id}/swap
func (h *RosterHandler) SwapAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}

	var req SwapAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SellID == "" || req.BuyID == "" {
		respondError(w, http.StatusBadRequest, "Both sell_id and buy_id are required")
		return
	}

	team, receipt, err := h.roster.SwapAsset(ctx, teamID, req.SellID, req.BuyID)
	if err != nil {
		h.respondRosterError(w, err, "swap_asset", "Failed to swap asset")
		return
	}

	h.metrics.RecordRosterEdit("swap_asset", "ok")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    SwapAssetResponse{Team: team, Receipt: receipt},
	})
}

// SetCaptainRequest represents a captain selection request
type SetCaptainRequest struct {
	DriverID string `json:"driver_id"`
}

// SetCaptain designates the driver whose race and sprint points double
// PUT /api/v1/teams/{id}/captain
func (h *RosterHandler) SetCaptain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}

	var req SetCaptainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := h.roster.SetCaptain(ctx, teamID, req.DriverID)
	if err != nil {
		h.respondRosterError(w, err, "set_captain", "Failed to set captain")
		return
	}

	h.metrics.RecordRosterEdit("set_captain", "ok")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    team,
	})
}

// GetScore returns a team's settled score for one race
// GET /api/v1/teams/{id}/scores/{raceId}
func (h *RosterHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}

	raceID, err := strconv.ParseInt(mux.Vars(r)["raceId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid race ID")
		return
	}

	score, err := h.roster.TeamScore(ctx, teamID, raceID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get team score")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve team score")
		return
	}
	if score == nil {
		respondError(w, http.StatusNotFound, "Race not settled for this team")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    score,
	})
}

// respondRosterError maps roster service errors onto HTTP statuses and
// records the edit outcome
func (h *RosterHandler) respondRosterError(w http.ResponseWriter, err error, operation, fallback string) {
	status := rosterStatus(err)
	if status == http.StatusInternalServerError {
		h.metrics.RecordRosterEdit(operation, "error")
		h.logger.WithError(err).Error(fallback)
		respondError(w, status, fallback)
		return
	}

	h.metrics.RecordRosterEdit(operation, "rejected")
	respondError(w, status, err.Error())
}

// rosterStatus classifies a roster service error. Lockout collisions
// are conflicts, rule violations are bad requests, everything else is
// a server fault.
func rosterStatus(err error) int {
	switch {
	case errors.Is(err, roster.ErrRosterLocked),
		errors.Is(err, roster.ErrCaptainLocked):
		return http.StatusConflict
	case errors.Is(err, roster.ErrNotHeld),
		errors.Is(err, pgx.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, roster.ErrBudgetExceeded),
		errors.Is(err, roster.ErrSlotLimit),
		errors.Is(err, roster.ErrAlreadyHeld),
		errors.Is(err, roster.ErrNotADriver),
		errors.Is(err, roster.ErrUnknownAsset):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseTeamID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	teamID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid team ID")
		return uuid.Nil, false
	}
	return teamID, true
}
