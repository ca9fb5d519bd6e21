package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/podium/backend/internal/lockout"
	"github.com/wonny/podium/backend/internal/market"
	"github.com/wonny/podium/backend/internal/pricing"
	"github.com/wonny/podium/backend/internal/realtime"
	"github.com/wonny/podium/backend/internal/results"
	"github.com/wonny/podium/backend/internal/roster"
	"github.com/wonny/podium/backend/internal/scheduler"
	"github.com/wonny/podium/backend/internal/scheduler/jobs"
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

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Background worker",
	Long: `Runs the scheduled background jobs.

Registered jobs:
- race_settlement: every 10 minutes (poll results, settle the race)
- schedule_sync: daily at 04:00 UTC (refresh the race calendar)
- maintenance: every 5 minutes (prune stale ticks, refresh standings)

Subcommands:
  start   - start the worker daemon
  list    - list registered jobs
  run     - run one job immediately and wait for it

Example:
  go run ./cmd/podium worker start
  go run ./cmd/podium worker run race_settlement`,
}

var (
	workerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the worker daemon",
		Long: `Starts the scheduler and keeps it running until interrupted.

When metrics are enabled the worker exposes /metrics on its own
port, since it has no API server to mount the handler on.`,
		RunE: runWorkerStart,
	}

	workerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  runWorkerList,
	}

	workerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkerJob,
	}
)

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.AddCommand(workerStartCmd)
	workerCmd.AddCommand(workerListCmd)
	workerCmd.AddCommand(workerRunCmd)
}

// workerRuntime bundles everything a worker subcommand needs. close
// must be called once the subcommand is done with it.
type workerRuntime struct {
	cfg   *config.Config
	log   *logger.Logger
	sched *scheduler.Scheduler
	mm    *metrics.Manager
	jobs  []scheduler.Job
	close func()
}

func runWorkerStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Podium Worker ===")

	rt, err := initWorker()
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}
	defer rt.close()

	rt.sched.Start()

	fmt.Println("\n✅ Worker started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, job := range rt.jobs {
		fmt.Printf("  - %-18s %s\n", job.Name(), job.Schedule())
	}

	// The worker has no router, so metrics get their own listener
	var metricsSrv *http.Server
	if rt.cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", rt.mm.Handler())
		metricsSrv = &http.Server{Addr: ":" + rt.cfg.MetricsPort, Handler: metricsMux}

		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				rt.log.WithError(err).Error("Metrics listener failed")
			}
		}()

		fmt.Printf("\nMetrics on http://localhost:%s/metrics\n", rt.cfg.MetricsPort)
	}

	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down worker...")
	rt.sched.Stop()

	if metricsSrv != nil {
		metricsSrv.Close()
	}

	fmt.Println("Worker stopped")
	return nil
}

func runWorkerList(cmd *cobra.Command, args []string) error {
	rt, err := initWorker()
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}
	defer rt.close()

	fmt.Println("Registered jobs:")
	for _, job := range rt.jobs {
		fmt.Printf("  - %-18s %s\n", job.Name(), job.Schedule())
	}

	return nil
}

func runWorkerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	rt, err := initWorker()
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}
	defer rt.close()

	var target scheduler.Job
	for _, job := range rt.jobs {
		if job.Name() == jobName {
			target = job
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown job: %s", jobName)
	}

	fmt.Printf("Running job: %s\n", jobName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	if err := target.Run(ctx); err != nil {
		return fmt.Errorf("job %s failed: %w", jobName, err)
	}

	fmt.Printf("✅ Job completed in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func initWorker() (*workerRuntime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg).Component("worker")

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

	// 5. Create metrics manager
	mm := metrics.NewManager(cfg.MetricsEnabled)

	// 6. Start realtime hub and tick cache. The worker publishes
	// settlement ticks into the hub even though no websocket clients
	// connect to this process; the hub drops what nobody reads.
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

	feed := results.NewFeedClient(cfg, log)
	html := results.NewHTMLClient(cfg, log)
	resultsSvc := results.NewService(feed, html, resultsRepo, calendarRepo, log)

	standingsSvc := standings.NewService(standingsRepo, cache, log)
	settler := settlement.NewSettler(calendarRepo, resultsRepo, rosterRepo, marketSvc, calc, engine, log)

	// 10. Create jobs and register them
	jobList := []scheduler.Job{
		jobs.NewSettlementJob(seasonSvc, resultsSvc, settler, standingsSvc, mm, log),
		jobs.NewScheduleSyncJob(resultsSvc, seasonSvc, log),
		jobs.NewMaintenanceJob(prices, standingsSvc, seasonSvc, log),
	}

	sched := scheduler.New(mm, log)
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			hub.Stop()
			redisClient.Close()
			db.Close()
			return nil, fmt.Errorf("register job %s: %w", job.Name(), err)
		}
	}

	return &workerRuntime{
		cfg:   cfg,
		log:   log,
		sched: sched,
		mm:    mm,
		jobs:  jobList,
		close: func() {
			hub.Stop()
			redisClient.Close()
			db.Close()
		},
	}, nil
}
