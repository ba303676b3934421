package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"go-job-acquirer/internal/browser"
	"go-job-acquirer/internal/config"
	"go-job-acquirer/internal/database"
	"go-job-acquirer/internal/dedup"
	"go-job-acquirer/internal/filter"
	"go-job-acquirer/internal/handoff"
	"go-job-acquirer/internal/keepawake"
	"go-job-acquirer/internal/metrics"
	"go-job-acquirer/internal/netcheck"
	"go-job-acquirer/internal/output"
	"go-job-acquirer/internal/pipeline"
	"go-job-acquirer/internal/report"
	"go-job-acquirer/internal/server"
	"go-job-acquirer/internal/telegram"
)

const (
	startupBackoff = 5 * time.Second
	challengeWait  = 15 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk every configured listing once",
	Long:  "Walk every configured listing, score new postings and hand off the matches; blocks until done or SIGINT/SIGTERM.",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}

	logger, closer, err := setupLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		return err
	}
	defer closer.Close()

	runID := uuid.NewString()
	logger.Info("🔧 Config loaded", "run", runID, "listings", len(cfg.Listings), "max_contexts", cfg.MaxContexts, "batch_size", cfg.BatchSize, "threshold", cfg.MatchingPercentage)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blocker := keepawake.Prevent(logger)
	defer blocker.Release()

	runErr := run(ctx, cfg, runID, logger)
	if runErr != nil {
		logger.Error("❌ Run failed", "err", runErr)
	}

	// cleanup and report run whatever happened above
	finish(cfg, runID, logger)
	return runErr
}

func run(ctx context.Context, cfg *config.Config, runID string, logger *log.Logger) error {
	startup := netcheck.NewMonitor(cfg.Connectivity.Endpoints, cfg.Connectivity.Timeout, startupBackoff, logger)
	if err := startup.Gate(ctx, nil); err != nil {
		return err
	}

	lock, err := dedup.Lock(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	shots := browser.NewScreenShotDebugger(cfg.Paths.Screenshots, logger)
	if err := bootstrap(cfg, shots, logger); err != nil {
		return err
	}

	scorer, err := buildScorer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	stats := pipeline.NewStats(metrics.New(reg))

	if cfg.StatusAddr != "" {
		srv := server.New(cfg.StatusAddr, server.NewRouter(runID, stats, reg), logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	fanout := handoff.NewFanout(logger, handoff.NewCSV(cfg.Paths.Output, cfg.LeaveBlankCols, logger))

	if cfg.DatabaseURL != "" {
		repo, err := database.ConnectDB(ctx, cfg.DatabaseURL, runID, logger)
		if err != nil {
			logger.Warn("⚠️ Database unavailable, jobs will not be recorded", "err", err)
		} else {
			defer repo.Close()
			if err := repo.EnsureSchema(ctx); err != nil {
				logger.Warn("⚠️ Database schema check failed", "err", err)
			}
			fanout.WithOptional(repo)
		}
	}

	var bot *telegram.Bot
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		bot, err = telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("⚠️ Telegram unavailable", "err", err)
			bot = nil
		} else {
			fanout.WithOptional(bot)
			bot.SendStatus(fmt.Sprintf("🚀 Run %s started: %d listings", runID[:8], len(cfg.Listings)))
		}
	}

	identities := browser.LoadIdentities(cfg.Paths.Proxies, cfg.Paths.Fingerprints, cfg.Paths.Accounts, logger)
	manager, err := browser.NewPlaywright(cfg.Headless, identities, logger)
	if err != nil {
		return err
	}

	ledger := dedup.NewLedger(cfg.Ledger.Path, logger)
	logger.Info("📚 Ledger loaded", "ids", ledger.Len())

	deps := pipeline.Deps{
		State: &pipeline.SharedState{
			Ledger:  ledger,
			Counter: filter.NewCompanyCounter(cfg.PerCompanyJobs),
			Ignore:  filter.NewKeywords(cfg.IgnoreCompanies),
			Exclude: filter.NewKeywords(cfg.ExcludeTitleKeywords),
		},
		Coordinator: pipeline.NewCoordinator(scorer, fanout, cfg.MatchingPercentage, stats, logger),
		Gate:        netcheck.NewMonitor(cfg.Connectivity.Endpoints, cfg.Connectivity.Timeout, cfg.Connectivity.Backoff, logger),
		Solver:      browser.NewTitleChallengeSolver(challengeWait, shots, logger),
		Shots:       shots,
		Stats:       stats,
		Logger:      logger,
	}
	walkerCfg := pipeline.WalkerConfig{
		Selectors:   cfg.Selectors,
		Timeouts:    cfg.Timeouts,
		BatchSize:   cfg.BatchSize,
		RandomSleep: cfg.RandomSleep,
	}

	err = pipeline.NewPool(manager, cfg.MaxContexts, deps, walkerCfg).Run(ctx, cfg.Listings)

	snap := stats.Snapshot()
	logger.Info("📊 Run summary", "pages", snap.Pages, "seen", snap.Seen, "accepted", snap.Accepted, "qualified", snap.Qualified, "score_failures", snap.ScoreFailures)
	switch {
	case bot == nil:
	case err != nil:
		bot.SendError(err)
	default:
		bot.SendStatus(fmt.Sprintf("✅ Run %s finished: %d qualified of %d new postings", runID[:8], snap.Qualified, snap.Accepted))
	}
	return err
}

// bootstrap prepares a clean run: fresh CSV files, an empty screenshots
// folder and a trimmed ledger file.
func bootstrap(cfg *config.Config, shots *browser.ScreenShotDebugger, logger *log.Logger) error {
	if err := output.CreateFresh(cfg.Paths.Output, cfg.OutputFiles(), logger); err != nil {
		return err
	}
	if err := shots.Reset(); err != nil {
		logger.Warn("⚠️ Could not reset screenshots folder", "err", err)
	}
	trimLedger(cfg, logger)
	return nil
}

func trimLedger(cfg *config.Config, logger *log.Logger) {
	kept, err := dedup.Truncate(cfg.Ledger.Path, cfg.Ledger.Keep)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("📚 No processed jobs file yet", "path", cfg.Ledger.Path)
		return
	}
	if err != nil {
		logger.Warn("⚠️ Failed to clean processed jobs file", "err", err)
		return
	}
	logger.Info("🧹 Trimmed processed jobs file", "entries", kept)
}

func sortOutputs(cfg *config.Config, logger *log.Logger) {
	for _, name := range cfg.OutputFiles() {
		path := filepath.Join(cfg.Paths.Output, name)
		if err := output.SortByColumn(path, cfg.ScoreColumn(), logger); err != nil {
			logger.Warn("⚠️ Could not sort output", "file", path, "err", err)
		}
	}
}

func finish(cfg *config.Config, runID string, logger *log.Logger) {
	sortOutputs(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := report.NewEmailer(cfg.Report, logger).Send(ctx, cfg.Paths.Screenshots, cfg.Paths.LogFile, runID); err != nil {
		logger.Error("❌ Failed to send debugging email", "err", err)
	}
	logger.Info("👋 Done", "run", runID)
}
