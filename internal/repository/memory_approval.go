package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blues/civicops/internal/model"
)

// MemoryApprovalRepo 进程内审批单存储
type MemoryApprovalRepo struct {
	mu        sync.RWMutex
	approvals map[string]*model.ApprovalModel
}

// NewMemoryApprovalRepo 创建进程内审批单存储
func NewMemoryApprovalRepo() *MemoryApprovalRepo {
	return &MemoryApprovalRepo{approvals: make(map[string]*model.ApprovalModel)}
}

func (r *MemoryApprovalRepo) Create(ctx context.Context, a *model.ApprovalModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.approvals[a.Id]; ok {
		return fmt.Errorf("approval %s already exists", a.Id)
	}
	r.approvals[a.Id] = a.Clone()
	return nil
}

func (r *MemoryApprovalRepo) GetByID(ctx context.Context, id string) (*model.ApprovalModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.approvals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (r *MemoryApprovalRepo) List(ctx context.Context, filter ApprovalFilter) ([]*model.ApprovalModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.ApprovalModel
	for _, a := range r.approvals {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a.Clone())
	}
	// 按提交时间升序
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].Id < out[j].Id
	})
	return out, nil
}

func (r *MemoryApprovalRepo) Update(ctx context.Context, a *model.ApprovalModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.approvals[a.Id]; !ok {
		return ErrNotFound
	}
	r.approvals[a.Id] = a.Clone()
	return nil
}

func (r *MemoryApprovalRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.approvals)), nil
}

// NewMemoryRepositories 创建全部进程内仓储
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Schedules: NewMemoryScheduleRepo(),
		Tasks:     NewMemoryTaskRepo(),
		Approvals: NewMemoryApprovalRepo(),
	}
}
