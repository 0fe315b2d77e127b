package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
)

func main() {
	envFile := pflag.String("env-file", "", "path to an env file loaded before reading the environment")
	policyFile := pflag.String("policy", "", "YAML permission policy overriding the built-in table")
	migrate := pflag.Bool("migrate", true, "apply SQL migrations on start-up (overrides POSTGRES_RUN_MIGRATIONS)")
	pflag.Parse()

	cfg, err := config.LoadFrom(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *policyFile != "" {
		cfg.Access.PolicyFile = *policyFile
	}
	if pflag.CommandLine.Changed("migrate") {
		cfg.Postgres.RunMigrations = *migrate
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table := access.DefaultTable()
	if cfg.Access.PolicyFile != "" {
		table, err = access.LoadTable(cfg.Access.PolicyFile)
		if err != nil {
			logger.Fatal("failed to load permission policy", zap.String("path", cfg.Access.PolicyFile), zap.Error(err))
		}
		logger.Info("permission policy loaded", zap.String("path", cfg.Access.PolicyFile))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	srv := buildServer(cfg, logger, access.NewGate(table), pg, redis)

	if _, created, err := srv.users.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPass); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	} else if !created && cfg.Auth.BootstrapAdminEmail != "" {
		logger.Debug("bootstrap admin already present")
	}

	logger.Info("starting http server",
		zap.String("addr", cfg.App.Addr()),
		zap.Bool("postgres", pg.Enabled()),
		zap.Bool("redis_stream", redis.Enabled()),
		zap.Duration("token_ttl", cfg.Auth.TokenTTL()))

	go func() {
		if err := srv.app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := srv.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
