package repository

import (
	"context"
	"sync"

	"github.com/blues/civicops/internal/model"
)

// MemoryTaskRepo 进程内任务清单存储
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	lists map[string][]*model.TaskModel // scheduleId -> 任务清单
}

// NewMemoryTaskRepo 创建进程内任务清单存储
func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{lists: make(map[string][]*model.TaskModel)}
}

func (r *MemoryTaskRepo) ReplaceAll(ctx context.Context, scheduleId string, tasks []*model.TaskModel) error {
	list := make([]*model.TaskModel, len(tasks))
	for i, t := range tasks {
		list[i] = t.Clone()
	}

	r.mu.Lock()
	r.lists[scheduleId] = list
	r.mu.Unlock()
	return nil
}

func (r *MemoryTaskRepo) ListBySchedule(ctx context.Context, scheduleId string) ([]*model.TaskModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list, ok := r.lists[scheduleId]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]*model.TaskModel, len(list))
	for i, t := range list {
		out[i] = t.Clone()
	}
	return out, nil
}

func (r *MemoryTaskRepo) GetByID(ctx context.Context, scheduleId, taskId string) (*model.TaskModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.lists[scheduleId] {
		if t.Id == taskId {
			return t.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTaskRepo) Update(ctx context.Context, t *model.TaskModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.lists[t.ScheduleId]
	for i := range list {
		if list[i].Id == t.Id {
			list[i] = t.Clone()
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryTaskRepo) DeleteBySchedule(ctx context.Context, scheduleId string) error {
	r.mu.Lock()
	delete(r.lists, scheduleId)
	r.mu.Unlock()
	return nil
}
