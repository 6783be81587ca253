package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"pms_sync/internal/adapters/mews"
	"pms_sync/internal/adapters/observability"
	redisad "pms_sync/internal/adapters/redis"
	"pms_sync/internal/app"
	"pms_sync/internal/shared"
	mysqlrepo "pms_sync/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	logger := observability.NewLogger(cfg.AppEnv, "dailysync")
	log.Logger = logger

	observability.Serve()

	logger.Info().
		Str("base", cfg.PMSBase).
		Str("vendor", cfg.PMSVendor).
		Int("workers", cfg.SyncWorkers).
		Msg("daily sync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("db.Ping failed")
	}
	logger.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	client, err := mews.New(cfg.PMSBase, cfg.PMSKey, cfg.PMSRPS, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PMS client")
	}
	client = client.WithRetryPolicy(cfg.RetryCount, cfg.RetryWait)

	pms, ok := app.ForVendor(cfg.PMSVendor, app.Deps{
		Client:  client,
		Repo:    repo,
		Hotels:  app.NewHotelDirectory(repo, cache, cfg.CacheTTL),
		Guests:  app.NewGuestResolver(client, repo, logger),
		Stays:   app.NewStayReconciler(repo, app.ReconcilerConfig{AllowTerminalCreate: cfg.AllowTerminalCreate}, logger),
		Workers: int64(cfg.SyncWorkers),
		Logger:  logger,
	})
	if !ok {
		logger.Fatal().Str("vendor", cfg.PMSVendor).Msg("no integration registered for vendor")
	}

	run := func() {
		date := cfg.SyncDate
		if date == "" {
			// the nightly job updates stays checking in tomorrow
			date = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
		}
		report := pms.SyncBatch(ctx, date)
		if report.Reason != "" {
			logger.Error().Str("date", date).Str("reason", report.Reason).Msg("sync run failed")
			return
		}
		for _, it := range report.Items {
			if it.Error != "" {
				logger.Warn().
					Str("reservation_id", it.ReservationID).
					Str("error", it.Error).
					Msg("sync item failed")
			}
		}
		logger.Info().
			Str("date", date).
			Int("total", report.Total).
			Int("succeeded", report.Succeeded).
			Int("failed", report.Failed).
			Msg("sync run complete")
	}

	if cfg.SyncCron == "" {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SyncCron, run); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.SyncCron).Msg("bad cron spec")
	}
	logger.Info().Str("spec", cfg.SyncCron).Msg("scheduler running")
	c.Run()
}
