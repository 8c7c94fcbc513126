package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activation-code-admin/internal/config"
	pg "activation-code-admin/internal/infra/db/postgres"
	"activation-code-admin/internal/infra/logging"
	"activation-code-admin/internal/infra/metrics"
	red "activation-code-admin/internal/infra/redis"
	"activation-code-admin/internal/infra/web"
	"activation-code-admin/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema migration failed")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	statsCache := red.NewStatsCache(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	codeRepo := pg.NewActivationCodeRepo(pool)
	adminRepo := pg.NewAdminAccountRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	codeUC := usecase.NewCodeUseCase(codeRepo, txManager, statsCache, logger)
	authUC := usecase.NewAuthUseCase(adminRepo, rateLimiter, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWin, logger)

	if cfg.Auth.AdminPassword != "" {
		if err := authUC.EnsureBootstrapAccount(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal().Err(err).Msg("bootstrap admin account failed")
		}
	}

	// ---- HTTP ----
	authManager := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := web.NewServer(codeUC, authUC, authManager, logger)

	go func() {
		if err := server.Start(cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}
