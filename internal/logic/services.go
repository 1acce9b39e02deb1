package logic

import "github.com/blues/civicops/internal/repository"

// Services 业务逻辑集合
type Services struct {
	Schedules *ScheduleLogic
	Tasks     *TaskLogic
	Approvals *ApprovalLogic
}

// NewServices 基于仓储创建全部业务逻辑
func NewServices(repos *repository.Repositories, opts ...Option) *Services {
	schedules := NewScheduleLogic(repos.Schedules, repos.Tasks, opts...)
	return &Services{
		Schedules: schedules,
		Tasks:     NewTaskLogic(schedules, repos.Tasks, opts...),
		Approvals: NewApprovalLogic(repos.Approvals, opts...),
	}
}
