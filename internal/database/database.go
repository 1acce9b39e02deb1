package database

import (
	"context"
	"fmt"

	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DSN 拼接 PostgreSQL 连接串
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Init 建立 pgx 连接池并在其上打开 gorm，返回的 pool 由调用方关闭
func Init(ctx context.Context, cfg config.DatabaseConfig, debug bool) (*gorm.DB, *pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), gormConfig(debug))
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	// 自动迁移
	if err := repository.Migrate(db); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return db, pool, nil
}

func gormConfig(debug bool) *gorm.Config {
	logMode := logger.Silent
	if debug {
		logMode = logger.Info
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true, // 禁用复数表名
		},
	}
}
