package database

import (
	"fmt"

	"github.com/blues/civicops/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite 打开单机 SQLite 数据库并迁移表结构，适合单实例部署和测试
func OpenSQLite(path string, debug bool) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite 只允许一个写连接
	sqlDB.SetMaxOpenConns(1)

	if err := repository.Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close 关闭 gorm 底层连接
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
