package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/model"
	"github.com/blues/civicops/internal/repository"
	"gorm.io/datatypes"
)

// defaultScheduleName 未指定名称时使用
const defaultScheduleName = "Project Schedule"

// ScheduleLogic 计划业务逻辑
type ScheduleLogic struct {
	schedules repository.ScheduleRepository
	tasks     repository.TaskRepository
	now       func() time.Time
}

// NewScheduleLogic 创建计划业务逻辑
func NewScheduleLogic(schedules repository.ScheduleRepository, tasks repository.TaskRepository, opts ...Option) *ScheduleLogic {
	s := applyOptions(opts)
	return &ScheduleLogic{
		schedules: schedules,
		tasks:     tasks,
		now:       s.now,
	}
}

// CreateScheduleInput 创建计划参数
type CreateScheduleInput struct {
	TemplateId        string          `json:"templateId"`
	TemplateName      string          `json:"templateName"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	SelectedPhases    json.RawMessage `json:"selectedPhases"`
	SelectedDocuments json.RawMessage `json:"selectedDocuments"`
	CreatedBy         string          `json:"-"`
}

// SchedulePatch 计划部分更新，只有非 nil 字段会被写入
type SchedulePatch struct {
	Name              *string               `json:"name"`
	Description       *string               `json:"description"`
	TemplateId        *string               `json:"templateId"`
	TemplateName      *string               `json:"templateName"`
	SelectedPhases    json.RawMessage       `json:"selectedPhases"`
	SelectedDocuments json.RawMessage       `json:"selectedDocuments"`
	Status            *model.ScheduleStatus `json:"status"`
	TotalDurationDays *int                  `json:"totalDurationDays"`
	TotalTasks        *int                  `json:"totalTasks"`
	CompletedTasks    *int                  `json:"completedTasks"`
	Progress          *int                  `json:"progress"`
	// Version 不为空时必须与存储的版本一致
	Version *int `json:"version"`
}

// CreateSchedule 为项目创建新计划并设为当前计划，选中的阶段会展开为任务清单
func (l *ScheduleLogic) CreateSchedule(ctx context.Context, projectId string, input CreateScheduleInput) (*model.ScheduleModel, error) {
	projectId = strings.TrimSpace(projectId)
	if projectId == "" {
		return nil, validationError("project id is required")
	}
	phases, err := jsonArray(input.SelectedPhases, "selectedPhases")
	if err != nil {
		return nil, err
	}
	documents, err := jsonArray(input.SelectedDocuments, "selectedDocuments")
	if err != nil {
		return nil, err
	}

	now := l.now()
	id, now, err := l.freeScheduleID(ctx, projectId, now)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.TemplateName
	}
	if name == "" {
		name = defaultScheduleName
	}

	expansion := expandPhases(id, phases, documents, now)
	stats := ComputeProgress(expansion.Tasks)

	schedule := &model.ScheduleModel{
		Id:                id,
		ProjectId:         projectId,
		CreatedAt:         now,
		UpdatedAt:         now,
		CreatedBy:         input.CreatedBy,
		Name:              name,
		Description:       input.Description,
		TemplateId:        input.TemplateId,
		TemplateName:      input.TemplateName,
		SelectedPhases:    phases,
		SelectedDocuments: documents,
		Status:            model.ScheduleStatusDraft,
		Version:           1,
		IsCurrent:         true,
		TotalDurationDays: expansion.DurationDays,
		TotalTasks:        stats.TotalTasks,
	}

	previousId, err := l.schedules.GetCurrentID(ctx, projectId)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("resolving current schedule: %w", err)
	}

	if err := l.schedules.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("creating schedule: %w", err)
	}
	if err := l.schedules.SetCurrent(ctx, projectId, id); err != nil {
		return nil, fmt.Errorf("setting current schedule: %w", err)
	}
	if previousId != "" {
		l.clearCurrentFlag(ctx, previousId)
	}

	if len(expansion.Tasks) > 0 {
		if err := l.tasks.ReplaceAll(ctx, id, expansion.Tasks); err != nil {
			return nil, fmt.Errorf("saving template tasks: %w", err)
		}
	}

	logger.Info("Created schedule %s for project %s with %d template records", id, projectId, len(expansion.Tasks))
	return schedule, nil
}

// GetCurrentSchedule 返回项目的当前计划，没有计划时返回 ErrNotFound
func (l *ScheduleLogic) GetCurrentSchedule(ctx context.Context, projectId string) (*model.ScheduleModel, error) {
	id, err := l.schedules.GetCurrentID(ctx, projectId)
	if err == nil {
		schedule, err := l.schedules.GetByID(ctx, id)
		if err == nil {
			return schedule, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 没有指针时退回到最近创建的计划
	list, err := l.schedules.ListByProject(ctx, projectId)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no schedule for project %s", ErrNotFound, projectId)
	}
	return list[len(list)-1], nil
}

// ListSchedules 返回项目下全部计划，按创建时间升序
func (l *ScheduleLogic) ListSchedules(ctx context.Context, projectId string) ([]*model.ScheduleModel, error) {
	return l.schedules.ListByProject(ctx, projectId)
}

// GetSchedule 获取计划详情
func (l *ScheduleLogic) GetSchedule(ctx context.Context, scheduleId string) (*model.ScheduleModel, error) {
	schedule, err := l.schedules.GetByID(ctx, scheduleId)
	if err != nil {
		return nil, notFound(err, "schedule %s", scheduleId)
	}
	return schedule, nil
}

// UpdateSchedule 读取已存储的计划，合并补丁字段后写回
func (l *ScheduleLogic) UpdateSchedule(ctx context.Context, projectId, scheduleId string, patch SchedulePatch) (*model.ScheduleModel, error) {
	schedule, err := l.schedules.GetByID(ctx, scheduleId)
	if err != nil {
		return nil, notFound(err, "schedule %s", scheduleId)
	}
	if projectId != "" && schedule.ProjectId != projectId {
		return nil, fmt.Errorf("%w: schedule %s in project %s", ErrNotFound, scheduleId, projectId)
	}
	if patch.Version != nil && *patch.Version != schedule.Version {
		return nil, fmt.Errorf("%w: schedule %s is at version %d, got %d",
			ErrVersionConflict, scheduleId, schedule.Version, *patch.Version)
	}

	expected := schedule.Version
	if err := applySchedulePatch(schedule, patch); err != nil {
		return nil, err
	}
	schedule.Version++
	schedule.UpdatedAt = l.now()

	if err := l.schedules.Update(ctx, schedule, expected); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: schedule %s was modified since version %d",
				ErrVersionConflict, scheduleId, expected)
		}
		return nil, notFound(err, "schedule %s", scheduleId)
	}

	// 统计字段由任务清单推导，补丁未指定时重新计算，覆盖读取后被并发刷新的值
	if !patch.setsStats() {
		refreshed, err := l.RecalculateProgress(ctx, scheduleId)
		if err != nil {
			logger.Warn("Failed to recalculate progress of schedule %s: %v", scheduleId, err)
		} else {
			schedule.TotalDurationDays = refreshed.TotalDurationDays
			schedule.TotalTasks = refreshed.TotalTasks
			schedule.CompletedTasks = refreshed.CompletedTasks
			schedule.Progress = refreshed.Progress
		}
	}
	return schedule, nil
}

// DeleteCurrentSchedule 删除项目下所有计划及其任务清单，返回删除的计划数量
func (l *ScheduleLogic) DeleteCurrentSchedule(ctx context.Context, projectId string) (int, error) {
	ids, err := l.schedules.DeleteByProject(ctx, projectId)
	if err != nil {
		return 0, fmt.Errorf("deleting schedules: %w", err)
	}
	for _, id := range ids {
		if err := l.tasks.DeleteBySchedule(ctx, id); err != nil {
			return 0, fmt.Errorf("deleting tasks of schedule %s: %w", id, err)
		}
	}
	logger.Info("Deleted %d schedules of project %s", len(ids), projectId)
	return len(ids), nil
}

// RecalculateProgress 根据已保存的任务清单刷新计划统计字段，不改变版本号
func (l *ScheduleLogic) RecalculateProgress(ctx context.Context, scheduleId string) (*model.ScheduleModel, error) {
	schedule, err := l.schedules.GetByID(ctx, scheduleId)
	if err != nil {
		return nil, notFound(err, "schedule %s", scheduleId)
	}

	tasks, err := l.tasks.ListBySchedule(ctx, scheduleId)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return schedule, nil
		}
		return nil, err
	}

	stats := ComputeProgress(tasks)
	if schedule.TotalTasks == stats.TotalTasks &&
		schedule.CompletedTasks == stats.CompletedTasks &&
		schedule.Progress == stats.Progress &&
		schedule.TotalDurationDays == stats.TotalDurationDays {
		return schedule, nil
	}

	err = l.schedules.UpdateStats(ctx, scheduleId, repository.ScheduleStats{
		TotalDurationDays: stats.TotalDurationDays,
		TotalTasks:        stats.TotalTasks,
		CompletedTasks:    stats.CompletedTasks,
		Progress:          stats.Progress,
		UpdatedAt:         l.now(),
	})
	if err != nil {
		return nil, notFound(err, "schedule %s", scheduleId)
	}
	return l.GetSchedule(ctx, scheduleId)
}

// ListAllSchedules 返回全部计划，供定时任务使用
func (l *ScheduleLogic) ListAllSchedules(ctx context.Context) ([]*model.ScheduleModel, error) {
	return l.schedules.List(ctx)
}

// freeScheduleID 同一毫秒内重复创建时顺延时间戳，避免覆盖已有计划
func (l *ScheduleLogic) freeScheduleID(ctx context.Context, projectId string, now time.Time) (string, time.Time, error) {
	for {
		id := model.ScheduleID(projectId, now)
		_, err := l.schedules.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return id, now, nil
		}
		if err != nil {
			return "", now, err
		}
		now = now.Add(time.Millisecond)
	}
}

// clearCurrentFlag 取消旧计划的当前标记，失败只记录日志
func (l *ScheduleLogic) clearCurrentFlag(ctx context.Context, scheduleId string) {
	if err := l.schedules.SetCurrentFlag(ctx, scheduleId, false, l.now()); err != nil {
		logger.Warn("Failed to clear current flag of schedule %s: %v", scheduleId, err)
	}
}

// setsStats 补丁是否直接指定了统计字段
func (p SchedulePatch) setsStats() bool {
	return p.TotalDurationDays != nil || p.TotalTasks != nil || p.CompletedTasks != nil || p.Progress != nil
}

func applySchedulePatch(s *model.ScheduleModel, patch SchedulePatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return validationError("name cannot be empty")
		}
		s.Name = name
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.TemplateId != nil {
		s.TemplateId = *patch.TemplateId
	}
	if patch.TemplateName != nil {
		s.TemplateName = *patch.TemplateName
	}
	if len(patch.SelectedPhases) > 0 {
		phases, err := jsonArray(patch.SelectedPhases, "selectedPhases")
		if err != nil {
			return err
		}
		s.SelectedPhases = phases
	}
	if len(patch.SelectedDocuments) > 0 {
		documents, err := jsonArray(patch.SelectedDocuments, "selectedDocuments")
		if err != nil {
			return err
		}
		s.SelectedDocuments = documents
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return validationError("invalid schedule status %q", *patch.Status)
		}
		s.Status = *patch.Status
	}
	if patch.TotalDurationDays != nil {
		if *patch.TotalDurationDays < 0 {
			return validationError("totalDurationDays cannot be negative")
		}
		s.TotalDurationDays = *patch.TotalDurationDays
	}
	if patch.TotalTasks != nil {
		if *patch.TotalTasks < 0 {
			return validationError("totalTasks cannot be negative")
		}
		s.TotalTasks = *patch.TotalTasks
	}
	if patch.CompletedTasks != nil {
		if *patch.CompletedTasks < 0 {
			return validationError("completedTasks cannot be negative")
		}
		s.CompletedTasks = *patch.CompletedTasks
	}
	if patch.Progress != nil {
		if *patch.Progress < 0 || *patch.Progress > 100 {
			return validationError("progress must be between 0 and 100")
		}
		s.Progress = *patch.Progress
	}
	return nil
}

// jsonArray 校验并返回 JSON 数组，空值视为空数组
func jsonArray(raw json.RawMessage, field string) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return datatypes.JSON("[]"), nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elems); err != nil {
		return nil, validationError("%s must be an array", field)
	}
	return datatypes.JSON(trimmed), nil
}
