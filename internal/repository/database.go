package repository

import (
	"errors"
	"fmt"

	"github.com/blues/civicops/internal/model"
	"gorm.io/gorm"
)

// Migrate 自动迁移所有表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.ScheduleModel{},
		&model.CurrentScheduleModel{},
		&model.TaskModel{},
		&model.TaskListModel{},
		&model.ApprovalModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// NewGormRepositories 创建全部 gorm 仓储
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Schedules: NewGormScheduleRepo(db),
		Tasks:     NewGormTaskRepo(db),
		Approvals: NewGormApprovalRepo(db),
	}
}

// translateError 将 gorm 的记录不存在转换为 ErrNotFound
func translateError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
