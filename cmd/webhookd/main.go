package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "pms_sync/internal/adapters/http_server"
	"pms_sync/internal/adapters/mews"
	"pms_sync/internal/adapters/observability"
	redisad "pms_sync/internal/adapters/redis"
	"pms_sync/internal/app"
	"pms_sync/internal/shared"
	mysqlrepo "pms_sync/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	logger := observability.NewLogger(cfg.AppEnv, "webhookd")
	log.Logger = logger

	observability.Serve()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("db.Ping failed")
	}
	logger.Info().Msg("database connection ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	client, err := mews.New(cfg.PMSBase, cfg.PMSKey, cfg.PMSRPS, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PMS client")
	}
	client = client.WithRetryPolicy(cfg.RetryCount, cfg.RetryWait)

	deps := app.Deps{
		Client:  client,
		Repo:    repo,
		Hotels:  app.NewHotelDirectory(repo, cache, cfg.CacheTTL),
		Guests:  app.NewGuestResolver(client, repo, logger),
		Stays:   app.NewStayReconciler(repo, app.ReconcilerConfig{AllowTerminalCreate: cfg.AllowTerminalCreate}, logger),
		Workers: int64(cfg.SyncWorkers),
		Logger:  logger,
	}

	srv := server.New(logger)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Deps: deps, Logger: logger})

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("webhook receiver listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}
