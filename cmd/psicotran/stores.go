package main

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/psicotran/psicotran/internal/config"
	"github.com/psicotran/psicotran/internal/domain/avaliacao"
	"github.com/psicotran/psicotran/internal/domain/normativa"
	"github.com/psicotran/psicotran/internal/platform/db"
)

// stores bundles the repositories of the configured driver.
type stores struct {
	tables  normativa.TableRepository
	results avaliacao.ResultRepository
	health  echo.HandlerFunc
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, poolConfig(cfg), logger)
		if err != nil {
			return nil, err
		}
		return &stores{
			tables:  normativa.NewTableRepoPG(pool),
			results: avaliacao.NewResultRepoPG(pool),
			health:  db.HealthHandler(pool),
			close:   pool.Close,
		}, nil

	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		tables, err := normativa.NewSQLiteStore(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		results, err := avaliacao.NewSQLiteStore(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		return &stores{
			tables:  tables,
			results: results,
			health:  db.SQLiteHealthHandler(sqlDB),
			close:   func() { _ = sqlDB.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}
