package repository

import (
	"context"
	"errors"
	"time"

	"github.com/blues/civicops/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormScheduleRepo 基于 gorm 的计划存储
type GormScheduleRepo struct {
	db *gorm.DB
}

// NewGormScheduleRepo 创建 gorm 计划存储
func NewGormScheduleRepo(db *gorm.DB) *GormScheduleRepo {
	return &GormScheduleRepo{db: db}
}

func (r *GormScheduleRepo) Create(ctx context.Context, s *model.ScheduleModel) error {
	return translateError(r.db.WithContext(ctx).Create(s).Error, "creating schedule %s", s.Id)
}

func (r *GormScheduleRepo) GetByID(ctx context.Context, id string) (*model.ScheduleModel, error) {
	var s model.ScheduleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translateError(err, "getting schedule %s", id)
	}
	return &s, nil
}

func (r *GormScheduleRepo) ListByProject(ctx context.Context, projectId string) ([]*model.ScheduleModel, error) {
	var list []*model.ScheduleModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectId).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, translateError(err, "listing schedules of project %s", projectId)
	}
	return list, nil
}

func (r *GormScheduleRepo) List(ctx context.Context) ([]*model.ScheduleModel, error) {
	var list []*model.ScheduleModel
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, translateError(err, "listing schedules")
	}
	return list, nil
}

func (r *GormScheduleRepo) Update(ctx context.Context, s *model.ScheduleModel, expectedVersion int) error {
	// Select("*") 保证零值字段也被写入
	result := r.db.WithContext(ctx).Model(&model.ScheduleModel{}).
		Where("id = ? AND version = ?", s.Id, expectedVersion).
		Select("*").
		Omit("id", "project_id", "created_at", "is_current").
		Updates(s)
	if result.Error != nil {
		return translateError(result.Error, "updating schedule %s", s.Id)
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, s.Id)
	}
	return nil
}

func (r *GormScheduleRepo) UpdateStats(ctx context.Context, id string, stats ScheduleStats) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"total_duration_days": stats.TotalDurationDays,
		"total_tasks":         stats.TotalTasks,
		"completed_tasks":     stats.CompletedTasks,
		"progress":            stats.Progress,
		"updated_at":          stats.UpdatedAt,
	})
}

func (r *GormScheduleRepo) SetCurrentFlag(ctx context.Context, id string, current bool, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"is_current": current,
		"updated_at": at,
	})
}

func (r *GormScheduleRepo) updateColumns(ctx context.Context, id string, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.ScheduleModel{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return translateError(result.Error, "updating schedule %s", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// missingOrConflict 条件更新未命中时区分记录不存在和版本冲突
func (r *GormScheduleRepo) missingOrConflict(ctx context.Context, id string) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.ScheduleModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translateError(err, "getting schedule %s", id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *GormScheduleRepo) DeleteByProject(ctx context.Context, projectId string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ScheduleModel{}).
			Where("project_id = ?", projectId).
			Order("id ASC").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectId).Delete(&model.ScheduleModel{}).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ?", projectId).Delete(&model.CurrentScheduleModel{}).Error
	})
	if err != nil {
		return nil, translateError(err, "deleting schedules of project %s", projectId)
	}
	return ids, nil
}

func (r *GormScheduleRepo) SetCurrent(ctx context.Context, projectId, scheduleId string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.ScheduleModel{}).Where("id = ?", scheduleId).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		pointer := model.CurrentScheduleModel{
			ProjectId:  projectId,
			ScheduleId: scheduleId,
			UpdatedAt:  time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"schedule_id", "updated_at"}),
		}).Create(&pointer).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return translateError(err, "setting current schedule of project %s", projectId)
}

func (r *GormScheduleRepo) GetCurrentID(ctx context.Context, projectId string) (string, error) {
	var pointer model.CurrentScheduleModel
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectId).First(&pointer).Error; err != nil {
		return "", translateError(err, "getting current schedule of project %s", projectId)
	}
	return pointer.ScheduleId, nil
}
