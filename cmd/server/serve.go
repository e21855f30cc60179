package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"natours_backend/internal/app/config"
	"natours_backend/internal/app/di"
	"natours_backend/internal/app/router"
	"natours_backend/internal/app/server"
	"natours_backend/internal/platform/db"
	"natours_backend/internal/platform/http/errorhandler"
	"natours_backend/internal/platform/redis"
	"natours_backend/internal/shared/ratelimiter"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// SIGINT / SIGTERM でグレースフルシャットダウン
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// db
	conn, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer func() {
			if err := sqlDB.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()
	}

	// Redis
	rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	limiter := ratelimiter.NewRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	go limiter.Run(ctx, cfg.RateLimit.Window)

	srv := server.New(server.Config{
		Addr:            net.JoinHostPort("", cfg.Server.Port),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		DrainDelay:      cfg.Server.DrainDelay,
	}, logger)

	deps := di.NewRouterDeps(cfg, conn, rdb, limiter, srv.Ready, logger)
	engine, err := router.NewRouter(router.Options{
		Mode:           errorhandler.Mode(cfg.Env),
		Logger:         logger,
		BodyLimit:      cfg.Server.BodyLimit,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
	}, deps)
	if err != nil {
		return err
	}

	logger.Info("starting server", "env", cfg.Env, "port", cfg.Server.Port)
	if err := srv.Run(ctx, engine); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", "error", err)
		return err
	}
	return nil
}
