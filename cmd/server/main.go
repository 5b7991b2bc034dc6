package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mycoll/marketplace/auth"
	"github.com/mycoll/marketplace/internal/clock"
	"github.com/mycoll/marketplace/internal/config"
	"github.com/mycoll/marketplace/internal/db"
	"github.com/mycoll/marketplace/internal/logging"
	"github.com/mycoll/marketplace/internal/metrics"
	"github.com/mycoll/marketplace/internal/policy"
	"github.com/mycoll/marketplace/internal/storage"
)

const serviceName = "mycoll-api"

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logging.MustNewLogger(serviceName, cfg.App.Env)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := logging.ContextWithLogger(context.Background(), logger)

	conn, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, conn); err != nil {
			return err
		}
		logger.Info("migrations_completed")
		return nil
	}

	if cfg.App.Migrations || cfg.Database.IsSQLite() {
		if err := migrate(cfg, conn); err != nil {
			return err
		}
		logger.Info("migrations_completed")
	}

	signer := auth.NewSigner(cfg.Auth.Secret, cfg.Auth.TokenTTL, clock.System{}).
		WithSecureCookie(!cfg.App.IsDev())
	routerCfg := policy.NewRouterConfig(policy.Deps{
		DB:       conn,
		Signer:   signer,
		Clock:    clock.System{},
		Metrics:  metrics.New("mycoll"),
		Images:   storage.NewImages(cfg.App.UploadDir),
		CacheTTL: cfg.Auth.CacheTTL,
	})

	if err := seed(ctx, conn, routerCfg, cfg.Auth); err != nil {
		return err
	}
	if *seedOnlyFlag {
		logger.Info("seeding_completed")
		return nil
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(routerCfg, logger),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Info("shutdown_signal_received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped")
	return nil
}

// migrate applies the versioned SQL migrations on PostgreSQL and falls back
// to AutoMigrate on sqlite.
func migrate(cfg *config.Config, conn *gorm.DB) error {
	if cfg.Database.IsSQLite() {
		return db.Migrate(conn)
	}
	return db.RunSQLMigrations(cfg.Database.URL())
}

func seed(ctx context.Context, conn *gorm.DB, rc *policy.RouterConfig, ac config.AuthConfig) error {
	if err := db.Seed(ctx, conn); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := rc.Identity.SeedAdmin(ctx, ac.AdminEmail, ac.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
