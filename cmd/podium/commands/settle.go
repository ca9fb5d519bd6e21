package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/podium/backend/internal/contracts"
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
	"github.com/wonny/podium/backend/pkg/redis"
)

// settleCmd represents the settle command
var settleCmd = &cobra.Command{
	Use:   "settle [raceID]",
	Short: "Settle a race",
	Long: `Scores every fantasy team for one race and moves market prices.

Without an argument the next unsettled race of the configured season
is used. Settlement is idempotent: re-running it for an already
settled race recomputes the same points and prices instead of
stacking another round on top.

Example:
  go run ./cmd/podium settle
  go run ./cmd/podium settle 12
  go run ./cmd/podium settle --ingest`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettle,
}

var (
	settleIngest bool
)

func init() {
	rootCmd.AddCommand(settleCmd)

	// Flags
	settleCmd.Flags().BoolVar(&settleIngest, "ingest", false, "pull results from the feed before settling")
}

func runSettle(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Podium Settlement ===")

	env, err := initOps()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer env.close()

	ctx := context.Background()

	var race *contracts.Race
	if len(args) == 1 {
		raceID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid race id: %s", args[0])
		}
		race, err = env.calendar.GetByID(ctx, raceID)
		if err != nil {
			return fmt.Errorf("load race: %w", err)
		}
	} else {
		race, err = env.season.NextRace(ctx, 0)
		if err != nil {
			return fmt.Errorf("find next race: %w", err)
		}
		if race == nil {
			fmt.Println("Season complete, nothing to settle")
			return nil
		}
	}

	fmt.Printf("Settling round %d: %s\n", race.Round, race.Name)

	if settleIngest {
		count, err := env.results.IngestRace(ctx, race)
		if err != nil {
			return fmt.Errorf("ingest results: %w", err)
		}
		if count == 0 {
			fmt.Println("Results not published yet, nothing to settle")
			return nil
		}
		fmt.Printf("Ingested %d results\n", count)
	}

	if err := env.settler.SettleRace(ctx, race.ID); err != nil {
		return fmt.Errorf("settle race: %w", err)
	}

	if err := env.standings.Refresh(ctx, env.cfg.Season.Year); err != nil {
		env.log.WithError(err).Warn("Standings refresh failed after settlement")
	}

	fmt.Printf("✅ Round %d settled\n", race.Round)
	return nil
}

// opsEnv bundles the wiring shared by the one-shot operational
// commands (settle, recompute, ingest, sync-schedule). close must be
// called when the command is done.
type opsEnv struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	rdb       *redis.Client
	calendar  contracts.CalendarRepository
	season    *season.Service
	results   *results.Service
	standings *standings.Service
	settler   *settlement.Settler
	close     func()
}

func initOps() (*opsEnv, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg).Component("cli")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis
	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	cache := redis.NewCache(redisClient, "podium")

	// 5. Realtime hub, started so settlement ticks have somewhere to go
	hub := realtime.NewHub(log)
	hub.Start()

	prices := realtime.NewPriceCache(5*time.Minute, log)

	// 6. Engines
	engine := pricing.NewEngine(log)
	calc := scoring.NewCalculator(scoring.DefaultRules(), log)
	machine := lockout.NewMachine(log)

	// 7. Repositories
	calendarRepo := season.NewRepository(db.Pool)
	marketRepo := market.NewRepository(db.Pool)
	rosterRepo := roster.NewRepository(db.Pool)
	resultsRepo := results.NewRepository(db.Pool)
	standingsRepo := standings.NewRepository(db.Pool)

	// 8. Services
	seasonSvc := season.NewService(calendarRepo, machine, cache, cfg.Season.Year, log)
	marketSvc := market.NewService(marketRepo, engine, cache, prices, hub, log)

	feed := results.NewFeedClient(cfg, log)
	html := results.NewHTMLClient(cfg, log)
	resultsSvc := results.NewService(feed, html, resultsRepo, calendarRepo, log)

	standingsSvc := standings.NewService(standingsRepo, cache, log)
	settler := settlement.NewSettler(calendarRepo, resultsRepo, rosterRepo, marketSvc, calc, engine, log)

	return &opsEnv{
		cfg:       cfg,
		log:       log,
		db:        db,
		rdb:       redisClient,
		calendar:  calendarRepo,
		season:    seasonSvc,
		results:   resultsSvc,
		standings: standingsSvc,
		settler:   settler,
		close: func() {
			hub.Stop()
			redisClient.Close()
			db.Close()
		},
	}, nil
}
