package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/podium/backend/internal/api/handlers"
	"github.com/wonny/podium/backend/internal/realtime"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/metrics"
	"github.com/wonny/podium/backend/pkg/redis"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	marketHandler *handlers.MarketHandler,
	rosterHandler *handlers.RosterHandler,
	leagueHandler *handlers.LeagueHandler,
	adminHandler *handlers.AdminHandler,
	hub *realtime.Hub,
	limiter *redis.RateLimiter,
	mm *metrics.Manager,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Prometheus scrape endpoint
	if mm.Enabled() {
		r.Handle("/metrics", mm.Handler()).Methods("GET")
	}

	// Live price ticks. Outside /api so the websocket upgrade skips the
	// wrapping middleware.
	r.HandleFunc("/ws/ticker", hub.ServeWS)

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	// Market endpoints
	api.HandleFunc("/market/drivers", marketHandler.ListDrivers).Methods("GET")
	api.HandleFunc("/market/drivers/{id}", marketHandler.GetDriver).Methods("GET")
	api.HandleFunc("/market/constructors", marketHandler.ListConstructors).Methods("GET")
	api.HandleFunc("/market/constructors/{id}", marketHandler.GetConstructor).Methods("GET")
	api.HandleFunc("/market/history/{id}", marketHandler.GetHistory).Methods("GET")
	api.HandleFunc("/market/ticks", marketHandler.GetTicks).Methods("GET")

	// Roster endpoints
	api.HandleFunc("/teams", rosterHandler.CreateTeam).Methods("POST")
	api.HandleFunc("/teams", rosterHandler.ListTeams).Methods("GET")
	api.HandleFunc("/teams/{id}", rosterHandler.GetTeam).Methods("GET")
	api.HandleFunc("/teams/{id}/assets", rosterHandler.AddAsset).Methods("POST")
	api.HandleFunc("/teams/{id}/assets/{assetId}", rosterHandler.RemoveAsset).Methods("DELETE")
	api.HandleFunc("/teams/{id}/swap", rosterHandler.SwapAsset).Methods("POST")
	api.HandleFunc("/teams/{id}/captain", rosterHandler.SetCaptain).Methods("PUT")
	api.HandleFunc("/teams/{id}/scores/{raceId}", rosterHandler.GetScore).Methods("GET")

	// Season endpoints
	api.HandleFunc("/season/calendar", leagueHandler.GetCalendar).Methods("GET")
	api.HandleFunc("/season/next-race", leagueHandler.GetNextRace).Methods("GET")
	api.HandleFunc("/season/lockout", leagueHandler.GetLockout).Methods("GET")
	api.HandleFunc("/season/standings", leagueHandler.GetStandings).Methods("GET")
	api.HandleFunc("/races/{id}/results", leagueHandler.GetRaceResults).Methods("GET")
	api.HandleFunc("/races/{id}/sprint", leagueHandler.GetSprintResults).Methods("GET")

	// Admin endpoints
	api.HandleFunc("/admin/lockout-override", adminHandler.SetLockoutOverride).Methods("PUT")
	api.HandleFunc("/admin/settle/{raceId}", adminHandler.SettleRace).Methods("POST")
	api.HandleFunc("/admin/recompute", adminHandler.RecomputeSeason).Methods("POST")
	api.HandleFunc("/admin/sync-schedule", adminHandler.SyncSchedule).Methods("POST")
	api.HandleFunc("/admin/ingest/{raceId}", adminHandler.IngestRace).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	api.Use(metricsMiddleware(mm))
	api.Use(rateLimitMiddleware(limiter, log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "podium-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithDuration(time.Since(start)).
				WithFields(map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
				}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// metricsMiddleware records request counts and latencies against the
// route template, not the raw path, to keep label cardinality bounded
func metricsMiddleware(mm *metrics.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}
			mm.RecordHTTPRequest(r.Method, path, rec.status, time.Since(start))
		})
	}
}

// rateLimitMiddleware enforces the per-client sliding window. Redis
// trouble never blocks traffic.
func rateLimitMiddleware(limiter *redis.RateLimiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			allowed, remaining, err := limiter.Allow(r.Context(), redis.APIClientRateLimit(host))
			if err != nil {
				log.WithError(err).Warn("Rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Rate limit exceeded",
				})
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for the metrics middleware
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
