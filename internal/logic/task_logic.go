package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/model"
	"github.com/blues/civicops/internal/repository"
	"gorm.io/datatypes"
)

// TaskLogic 计划任务业务逻辑
type TaskLogic struct {
	schedules *ScheduleLogic
	tasks     repository.TaskRepository
	now       func() time.Time
}

// NewTaskLogic 创建计划任务业务逻辑
func NewTaskLogic(schedules *ScheduleLogic, tasks repository.TaskRepository, opts ...Option) *TaskLogic {
	s := applyOptions(opts)
	return &TaskLogic{
		schedules: schedules,
		tasks:     tasks,
		now:       s.now,
	}
}

// TaskPatch 单个任务的部分更新
type TaskPatch struct {
	Name             *string                `json:"name"`
	Description      *string                `json:"description"`
	PhaseId          *string                `json:"phaseId"`
	OrderIndex       *int                   `json:"orderIndex"`
	EstimatedHours   *float64               `json:"estimatedHours"`
	ActualHours      *float64               `json:"actualHours"`
	PlannedStartDate *time.Time             `json:"plannedStartDate"`
	PlannedEndDate   *time.Time             `json:"plannedEndDate"`
	ActualStartDate  *time.Time             `json:"actualStartDate"`
	ActualEndDate    *time.Time             `json:"actualEndDate"`
	Dependencies     *[]string              `json:"dependencies"`
	Assignee         *string                `json:"assignee"`
	RequiredSkills   *[]string              `json:"requiredSkills"`
	Deliverables     *[]string              `json:"deliverables"`
	Status           *model.TaskStatus      `json:"status"`
	Progress         *int                   `json:"progress"`
	Checklist        *[]model.ChecklistItem `json:"checklist"`
}

// TaskHierarchy 任务层级视图
type TaskHierarchy struct {
	Roots    []*model.TaskModel            `json:"roots"`
	Children map[string][]*model.TaskModel `json:"children"`
	Orphaned []string                      `json:"orphaned"`
}

// SaveBulkTasks 整体替换计划的任务清单，返回保存的任务数
func (l *TaskLogic) SaveBulkTasks(ctx context.Context, scheduleId string, tasks []*model.TaskModel) (int, error) {
	if _, err := l.schedules.GetSchedule(ctx, scheduleId); err != nil {
		return 0, err
	}

	now := l.now()
	ids := newTaskIDGenerator(scheduleId, now)
	seen := make(map[string]struct{}, len(tasks))
	list := make([]*model.TaskModel, 0, len(tasks))
	for i, t := range tasks {
		if t == nil {
			return 0, validationError("task %d is null", i)
		}
		normalized := normalizeTask(t, scheduleId, ids, now)
		if _, dup := seen[normalized.Id]; dup {
			return 0, validationError("duplicate task id %s", normalized.Id)
		}
		seen[normalized.Id] = struct{}{}
		list = append(list, normalized)
	}

	if err := l.tasks.ReplaceAll(ctx, scheduleId, list); err != nil {
		return 0, fmt.Errorf("saving tasks: %w", err)
	}

	// 统计字段与任务清单分开写入
	if _, err := l.schedules.RecalculateProgress(ctx, scheduleId); err != nil {
		logger.Warn("Failed to recalculate progress of schedule %s: %v", scheduleId, err)
	}

	logger.Info("Saved %d tasks for schedule %s", len(list), scheduleId)
	return len(list), nil
}

// GetScheduleTasks 返回已保存的任务清单，从未保存过时返回示例清单
func (l *TaskLogic) GetScheduleTasks(ctx context.Context, scheduleId string) ([]*model.TaskModel, error) {
	tasks, err := l.tasks.ListBySchedule(ctx, scheduleId)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ExampleTasks(scheduleId, l.now()), nil
		}
		return nil, err
	}
	return tasks, nil
}

// GetTaskHierarchy 返回顶层任务和按父任务分组的子任务
func (l *TaskLogic) GetTaskHierarchy(ctx context.Context, scheduleId string) (*TaskHierarchy, error) {
	tasks, err := l.GetScheduleTasks(ctx, scheduleId)
	if err != nil {
		return nil, err
	}
	children := BuildHierarchy(tasks)
	orphaned := OrphanedParentIDs(tasks, children)
	if orphaned == nil {
		orphaned = []string{}
	}
	return &TaskHierarchy{
		Roots:    TopLevelTasks(tasks),
		Children: children,
		Orphaned: orphaned,
	}, nil
}

// UpdateTask 读取已保存的任务，合并补丁字段后写回
func (l *TaskLogic) UpdateTask(ctx context.Context, scheduleId, taskId string, patch TaskPatch) (*model.TaskModel, error) {
	task, err := l.tasks.GetByID(ctx, scheduleId, taskId)
	if err != nil {
		return nil, notFound(err, "task %s in schedule %s", taskId, scheduleId)
	}

	now := l.now()
	if err := applyTaskPatch(task, patch, now); err != nil {
		return nil, err
	}
	task.UpdatedAt = now

	if err := l.tasks.Update(ctx, task); err != nil {
		return nil, notFound(err, "task %s in schedule %s", taskId, scheduleId)
	}

	if _, err := l.schedules.RecalculateProgress(ctx, scheduleId); err != nil {
		logger.Warn("Failed to recalculate progress of schedule %s: %v", scheduleId, err)
	}
	return task, nil
}

// normalizeTask 补齐批量保存时缺省的字段
func normalizeTask(t *model.TaskModel, scheduleId string, ids *taskIDGenerator, now time.Time) *model.TaskModel {
	n := t.Clone()
	n.ScheduleId = scheduleId
	n.Id = strings.TrimSpace(n.Id)
	if n.Id == "" {
		n.Id = ids.next()
	}
	if n.Kind == "" {
		n.Kind = model.TaskKindTask
	}
	if n.Status == "" {
		n.Status = model.TaskStatusNotStarted
	}
	if n.ParentTaskId != nil && *n.ParentTaskId == "" {
		n.ParentTaskId = nil
	}
	n.IsSubtask = n.HasParent()
	if n.IsSubtask && n.Level == 0 {
		n.Level = 1
	}
	if n.Dependencies == nil {
		n.Dependencies = datatypes.JSONSlice[string]{}
	}
	if n.RequiredSkills == nil {
		n.RequiredSkills = datatypes.JSONSlice[string]{}
	}
	if n.Deliverables == nil {
		n.Deliverables = datatypes.JSONSlice[string]{}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	return n
}

func applyTaskPatch(t *model.TaskModel, patch TaskPatch, now time.Time) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return validationError("name cannot be empty")
		}
		t.Name = name
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.PhaseId != nil {
		t.PhaseId = *patch.PhaseId
	}
	if patch.OrderIndex != nil {
		t.OrderIndex = *patch.OrderIndex
	}
	if patch.EstimatedHours != nil {
		if *patch.EstimatedHours < 0 {
			return validationError("estimatedHours cannot be negative")
		}
		t.EstimatedHours = *patch.EstimatedHours
	}
	if patch.ActualHours != nil {
		if *patch.ActualHours < 0 {
			return validationError("actualHours cannot be negative")
		}
		hours := *patch.ActualHours
		t.ActualHours = &hours
	}
	if patch.PlannedStartDate != nil {
		t.PlannedStartDate = patch.PlannedStartDate
	}
	if patch.PlannedEndDate != nil {
		t.PlannedEndDate = patch.PlannedEndDate
	}
	if t.PlannedStartDate != nil && t.PlannedEndDate != nil && t.PlannedEndDate.Before(*t.PlannedStartDate) {
		return validationError("plannedEndDate is before plannedStartDate")
	}
	if patch.ActualStartDate != nil {
		t.ActualStartDate = patch.ActualStartDate
	}
	if patch.ActualEndDate != nil {
		t.ActualEndDate = patch.ActualEndDate
	}
	if patch.Dependencies != nil {
		t.Dependencies = append(datatypes.JSONSlice[string]{}, (*patch.Dependencies)...)
	}
	if patch.Assignee != nil {
		t.Assignee = *patch.Assignee
	}
	if patch.RequiredSkills != nil {
		t.RequiredSkills = append(datatypes.JSONSlice[string]{}, (*patch.RequiredSkills)...)
	}
	if patch.Deliverables != nil {
		t.Deliverables = append(datatypes.JSONSlice[string]{}, (*patch.Deliverables)...)
	}
	if patch.Checklist != nil {
		t.Checklist = append(datatypes.JSONSlice[model.ChecklistItem]{}, (*patch.Checklist)...)
	}
	if patch.Progress != nil {
		if *patch.Progress < 0 || *patch.Progress > 100 {
			return validationError("progress must be between 0 and 100")
		}
		t.Progress = *patch.Progress
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return validationError("invalid task status %q", *patch.Status)
		}
		t.Status = *patch.Status
		switch t.Status {
		case model.TaskStatusCompleted:
			t.Progress = 100
			if t.ActualEndDate == nil {
				end := now
				t.ActualEndDate = &end
			}
		case model.TaskStatusInProgress:
			if t.ActualStartDate == nil {
				start := now
				t.ActualStartDate = &start
			}
		}
	}
	return nil
}
