package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/podium/backend/internal/market"
	"github.com/wonny/podium/backend/pkg/logger"
)

// MarketHandler handles asset market API endpoints
type MarketHandler struct {
	market *market.Service
	logger *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(svc *market.Service, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		market: svc,
		logger: log,
	}
}

// ListDrivers returns every driver with its live price
// GET /api/v1/market/drivers
func (h *MarketHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	drivers, err := h.market.Drivers(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list drivers")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve drivers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    drivers,
	})
}

// GetDriver returns one driver
// GET /api/v1/market/drivers/{id}
func (h *MarketHandler) GetDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID := mux.Vars(r)["id"]

	driver, err := h.market.Driver(ctx, driverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Unknown driver")
			return
		}
		h.logger.WithError(err).Error("Failed to get driver")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve driver")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    driver,
	})
}

// ListConstructors returns every constructor with its live price
// GET /api/v1/market/constructors
func (h *MarketHandler) ListConstructors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	constructors, err := h.market.Constructors(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list constructors")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve constructors")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    constructors,
	})
}

// GetConstructor returns one constructor
// GET /api/v1/market/constructors/{id}
func (h *MarketHandler) GetConstructor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	constructorID := mux.Vars(r)["id"]

	constructor, err := h.market.Constructor(ctx, constructorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Unknown constructor")
			return
		}
		h.logger.WithError(err).Error("Failed to get constructor")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve constructor")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    constructor,
	})
}

// GetHistory returns an asset's price series with its trend
// GET /api/v1/market/history/{id}?limit=10
func (h *MarketHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID := mux.Vars(r)["id"]

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(w, http.StatusBadRequest, "Invalid limit (valid: 1-100)")
			return
		}
		limit = parsed
	}

	history, err := h.market.History(ctx, entityID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get price history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve price history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    history,
	})
}

// GetTicks returns the live price ticks held in the hot cache
// GET /api/v1/market/ticks
func (h *MarketHandler) GetTicks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.market.LiveTicks(),
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
