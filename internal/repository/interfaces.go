package repository

import (
	"context"
	"errors"
	"time"

	"github.com/blues/civicops/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// ErrConflict 写入时存储的版本号已被其他请求修改
var ErrConflict = errors.New("version conflict")

// ScheduleStats 由任务清单推导出的计划统计字段
type ScheduleStats struct {
	TotalDurationDays int
	TotalTasks        int
	CompletedTasks    int
	Progress          int
	UpdatedAt         time.Time
}

// ScheduleRepository 计划存储
type ScheduleRepository interface {
	Create(ctx context.Context, s *model.ScheduleModel) error
	GetByID(ctx context.Context, id string) (*model.ScheduleModel, error)
	ListByProject(ctx context.Context, projectId string) ([]*model.ScheduleModel, error)
	List(ctx context.Context) ([]*model.ScheduleModel, error)
	// Update 仅在存储的版本号等于 expectedVersion 时写入，否则返回 ErrConflict。
	// 当前计划标记不随之写入，由 SetCurrentFlag 维护。
	Update(ctx context.Context, s *model.ScheduleModel, expectedVersion int) error
	// UpdateStats 只写统计字段，不检查也不改变版本号
	UpdateStats(ctx context.Context, id string, stats ScheduleStats) error
	SetCurrentFlag(ctx context.Context, id string, current bool, at time.Time) error
	// DeleteByProject 删除项目下所有计划及当前计划指针，返回被删除的计划ID
	DeleteByProject(ctx context.Context, projectId string) ([]string, error)
	SetCurrent(ctx context.Context, projectId, scheduleId string) error
	GetCurrentID(ctx context.Context, projectId string) (string, error)
}

// TaskRepository 计划任务清单存储
type TaskRepository interface {
	// ReplaceAll 整体替换计划的任务清单
	ReplaceAll(ctx context.Context, scheduleId string, tasks []*model.TaskModel) error
	// ListBySchedule 返回已保存的清单，从未保存过时返回 ErrNotFound
	ListBySchedule(ctx context.Context, scheduleId string) ([]*model.TaskModel, error)
	GetByID(ctx context.Context, scheduleId, taskId string) (*model.TaskModel, error)
	Update(ctx context.Context, t *model.TaskModel) error
	DeleteBySchedule(ctx context.Context, scheduleId string) error
}

// ApprovalFilter 审批单查询条件
type ApprovalFilter struct {
	Type   model.ApprovalType
	Status model.ApprovalStatus
}

// ApprovalRepository 审批单存储
type ApprovalRepository interface {
	Create(ctx context.Context, a *model.ApprovalModel) error
	GetByID(ctx context.Context, id string) (*model.ApprovalModel, error)
	List(ctx context.Context, filter ApprovalFilter) ([]*model.ApprovalModel, error)
	Update(ctx context.Context, a *model.ApprovalModel) error
	Count(ctx context.Context) (int64, error)
}

// Repositories 仓储集合
type Repositories struct {
	Schedules ScheduleRepository
	Tasks     TaskRepository
	Approvals ApprovalRepository
}
