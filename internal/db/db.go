// Package db opens the relational store, applies the schema and seeds
// reference data.
package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mycoll/marketplace/internal/config"
	"github.com/mycoll/marketplace/internal/logging"
)

const connectAttempts = 10

// Open connects to the configured database, retrying while PostgreSQL starts.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logging.NewGormLogger(logger, cfg.Debug)}

	var dialector gorm.Dialector
	if cfg.IsSQLite() {
		dialector = sqlite.Open(cfg.DSN())
	} else {
		dialector = postgres.Open(cfg.DSN())
	}

	var (
		conn *gorm.DB
		err  error
	)
	for i := 1; i <= connectAttempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = conn.WithContext(ctx).Exec("SELECT 1").Error
		}
		if err == nil || cfg.IsSQLite() {
			break
		}
		logger.Warn("db_connect_retry", zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Redacted(), err)
	}
	logger.Info("db_connected", zap.String("target", cfg.Redacted()))
	return conn, nil
}
