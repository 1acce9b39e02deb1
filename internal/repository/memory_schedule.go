package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blues/civicops/internal/model"
)

// MemoryScheduleRepo 进程内计划存储，重启后数据丢失
type MemoryScheduleRepo struct {
	mu        sync.RWMutex
	schedules map[string]*model.ScheduleModel
	current   map[string]string // projectId -> scheduleId
}

// NewMemoryScheduleRepo 创建进程内计划存储
func NewMemoryScheduleRepo() *MemoryScheduleRepo {
	return &MemoryScheduleRepo{
		schedules: make(map[string]*model.ScheduleModel),
		current:   make(map[string]string),
	}
}

func (r *MemoryScheduleRepo) Create(ctx context.Context, s *model.ScheduleModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.Id] = s.Clone()
	return nil
}

func (r *MemoryScheduleRepo) GetByID(ctx context.Context, id string) (*model.ScheduleModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryScheduleRepo) ListByProject(ctx context.Context, projectId string) ([]*model.ScheduleModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := model.ScheduleKeyPrefix(projectId)
	var out []*model.ScheduleModel
	for id, s := range r.schedules {
		if strings.HasPrefix(id, prefix) && s.ProjectId == projectId {
			out = append(out, s.Clone())
		}
	}
	sortSchedules(out)
	return out, nil
}

func (r *MemoryScheduleRepo) List(ctx context.Context) ([]*model.ScheduleModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.ScheduleModel, 0, len(r.schedules))
	for _, s := range r.schedules {
		out = append(out, s.Clone())
	}
	sortSchedules(out)
	return out, nil
}

func (r *MemoryScheduleRepo) Update(ctx context.Context, s *model.ScheduleModel, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.schedules[s.Id]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrConflict
	}
	c := s.Clone()
	c.ProjectId = stored.ProjectId
	c.CreatedAt = stored.CreatedAt
	c.IsCurrent = stored.IsCurrent
	r.schedules[s.Id] = c
	return nil
}

func (r *MemoryScheduleRepo) UpdateStats(ctx context.Context, id string, stats ScheduleStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.schedules[id]
	if !ok {
		return ErrNotFound
	}
	stored.TotalDurationDays = stats.TotalDurationDays
	stored.TotalTasks = stats.TotalTasks
	stored.CompletedTasks = stats.CompletedTasks
	stored.Progress = stats.Progress
	stored.UpdatedAt = stats.UpdatedAt
	return nil
}

func (r *MemoryScheduleRepo) SetCurrentFlag(ctx context.Context, id string, current bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.schedules[id]
	if !ok {
		return ErrNotFound
	}
	stored.IsCurrent = current
	stored.UpdatedAt = at
	return nil
}

func (r *MemoryScheduleRepo) DeleteByProject(ctx context.Context, projectId string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := model.ScheduleKeyPrefix(projectId)
	var deleted []string
	for id, s := range r.schedules {
		if strings.HasPrefix(id, prefix) && s.ProjectId == projectId {
			delete(r.schedules, id)
			deleted = append(deleted, id)
		}
	}
	delete(r.current, projectId)
	sort.Strings(deleted)
	return deleted, nil
}

func (r *MemoryScheduleRepo) SetCurrent(ctx context.Context, projectId, scheduleId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[scheduleId]; !ok {
		return ErrNotFound
	}
	r.current[projectId] = scheduleId
	return nil
}

func (r *MemoryScheduleRepo) GetCurrentID(ctx context.Context, projectId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.current[projectId]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

// sortSchedules 按创建时间升序，时间相同按ID
func sortSchedules(list []*model.ScheduleModel) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].Id < list[j].Id
	})
}
