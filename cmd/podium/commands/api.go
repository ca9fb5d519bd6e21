package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/podium/backend/internal/api"
	"github.com/wonny/podium/backend/internal/api/handlers"
	"github.com/wonny/podium/backend/internal/lockout"
	"github.com/wonny/podium/backend/internal/market"
	"github.com/wonny/podium/backend/internal/pricing"
	"github.com/wonny/podium/backend/internal/realtime"
	"github.com/wonny/podium/backend/internal/results"
	"github.com/wonny/podium/backend/internal/roster"
	"github.com/wonny/podium/backend/internal/scoring"
	"github.com/wonny/podium/backend/internal/season"
	"github.com/wonny/podium/backend/internal/settlement"
	"github.com/wonny/podium/backend/internal/standings"
	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/database"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/metrics"
	"github.com/wonny/podium/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command serves:
- Market endpoints (drivers, constructors, price history, live ticks)
- Roster endpoints (teams, assets, captain, scores)
- League endpoints (calendar, lockout, standings, results)
- Admin endpoints (settlement, overrides, schedule sync)
- Websocket price ticker at /ws/ticker

Example:
  go run ./cmd/podium api
  go run ./cmd/podium api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Podium API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg).Component("api")

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"season": cfg.Season.Year,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "podium")
	limiter := redis.NewRateLimiter(redisClient, "podium")

	// 5. Create metrics manager
	mm := metrics.NewManager(cfg.MetricsEnabled)

	// 6. Start realtime hub and tick cache
	hub := realtime.NewHub(log)
	hub.Start()

	prices := realtime.NewPriceCache(5*time.Minute, log)

	// 7. Create engines
	engine := pricing.NewEngine(log)
	calc := scoring.NewCalculator(scoring.DefaultRules(), log)
	machine := lockout.NewMachine(log)

	// 8. Create repositories
	calendarRepo := season.NewRepository(db.Pool)
	marketRepo := market.NewRepository(db.Pool)
	rosterRepo := roster.NewRepository(db.Pool)
	resultsRepo := results.NewRepository(db.Pool)
	standingsRepo := standings.NewRepository(db.Pool)

	// 9. Create services
	seasonSvc := season.NewService(calendarRepo, machine, cache, cfg.Season.Year, log)
	marketSvc := market.NewService(marketRepo, engine, cache, prices, hub, log)
	rosterSvc := roster.NewService(rosterRepo, marketSvc, seasonSvc, calc, cache, cfg.Season.Year, log)

	feed := results.NewFeedClient(cfg, log)
	html := results.NewHTMLClient(cfg, log)
	resultsSvc := results.NewService(feed, html, resultsRepo, calendarRepo, log)

	standingsSvc := standings.NewService(standingsRepo, cache, log)
	settler := settlement.NewSettler(calendarRepo, resultsRepo, rosterRepo, marketSvc, calc, engine, log)

	// 10. Create handlers
	marketHandler := handlers.NewMarketHandler(marketSvc, log)
	rosterHandler := handlers.NewRosterHandler(rosterSvc, mm, log)
	leagueHandler := handlers.NewLeagueHandler(seasonSvc, standingsSvc, resultsSvc, log)
	adminHandler := handlers.NewAdminHandler(calendarRepo, seasonSvc, resultsSvc, settler, standingsSvc, mm, log)

	// 11. Create router
	router := api.NewRouter(marketHandler, rosterHandler, leagueHandler, adminHandler, hub, limiter, mm, log)

	// 12. Create server
	server := api.New(cfg, log, router)

	// 13. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/v1/market/drivers")
	fmt.Println("  GET  /api/v1/season/standings")
	fmt.Println("  POST /api/v1/teams")
	fmt.Println("  GET  /ws/ticker")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	hub.Stop()

	log.Info("Server stopped")
	return nil
}
