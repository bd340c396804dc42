package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"niwaki/internal/adapter/repo"
	"niwaki/internal/infra"
	"niwaki/internal/leaderboard"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("service", "worker").Logger()

	reporter, err := infra.NewReporter(cfg.SentryDSN, cfg.AppEnv, "worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to initialise sentry")
	}
	defer reporter.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg, "niwaki-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	refresher := leaderboard.NewRefresher(repo.NewLeaderboardRepository(infra.NewSQLRunner(pool, logger)), logger)
	refresh := func() {
		if _, err := refresher.Refresh(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("worker: leaderboard refresh failed")
			reporter.Capture(err, map[string]string{"job": "leaderboard"})
		}
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(cfg.LeaderboardCron, refresh); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.LeaderboardCron).Msg("worker: invalid LEADERBOARD_CRON")
	}

	logger.Info().Str("schedule", cfg.LeaderboardCron).Msg("worker started")
	refresh()
	scheduler.Start()

	<-ctx.Done()
	logger.Info().Msg("worker: shutting down")
	<-scheduler.Stop().Done()
	logger.Info().Msg("worker stopped")
}
