package repository

import (
	"context"
	"time"

	"github.com/blues/civicops/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepo 基于 gorm 的任务清单存储
type GormTaskRepo struct {
	db *gorm.DB
}

// NewGormTaskRepo 创建 gorm 任务清单存储
func NewGormTaskRepo(db *gorm.DB) *GormTaskRepo {
	return &GormTaskRepo{db: db}
}

// ReplaceAll 在一个事务中删除旧清单、写入新清单并更新清单头
func (r *GormTaskRepo) ReplaceAll(ctx context.Context, scheduleId string, tasks []*model.TaskModel) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleId).Delete(&model.TaskModel{}).Error; err != nil {
			return err
		}
		if len(tasks) > 0 {
			for i, t := range tasks {
				t.Position = i
			}
			if err := tx.CreateInBatches(tasks, 200).Error; err != nil {
				return err
			}
		}
		header := model.TaskListModel{
			ScheduleId: scheduleId,
			TaskCount:  len(tasks),
			SavedAt:    time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "schedule_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"task_count", "saved_at"}),
		}).Create(&header).Error
	})
	return translateError(err, "replacing tasks of schedule %s", scheduleId)
}

func (r *GormTaskRepo) ListBySchedule(ctx context.Context, scheduleId string) ([]*model.TaskModel, error) {
	var header model.TaskListModel
	if err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleId).First(&header).Error; err != nil {
		return nil, translateError(err, "getting task list of schedule %s", scheduleId)
	}

	tasks := make([]*model.TaskModel, 0, header.TaskCount)
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleId).
		Order("position ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, translateError(err, "listing tasks of schedule %s", scheduleId)
	}
	return tasks, nil
}

func (r *GormTaskRepo) GetByID(ctx context.Context, scheduleId, taskId string) (*model.TaskModel, error) {
	var t model.TaskModel
	err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND id = ?", scheduleId, taskId).
		First(&t).Error
	if err != nil {
		return nil, translateError(err, "getting task %s", taskId)
	}
	return &t, nil
}

func (r *GormTaskRepo) Update(ctx context.Context, t *model.TaskModel) error {
	result := r.db.WithContext(ctx).Model(&model.TaskModel{}).
		Where("schedule_id = ? AND id = ?", t.ScheduleId, t.Id).
		Select("*").
		Updates(t)
	if result.Error != nil {
		return translateError(result.Error, "updating task %s", t.Id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaskRepo) DeleteBySchedule(ctx context.Context, scheduleId string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleId).Delete(&model.TaskModel{}).Error; err != nil {
			return err
		}
		return tx.Where("schedule_id = ?", scheduleId).Delete(&model.TaskListModel{}).Error
	})
	return translateError(err, "deleting tasks of schedule %s", scheduleId)
}
