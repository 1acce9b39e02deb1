package scheduler

import (
	"context"
	"time"

	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// ApprovalOverdueJob 逾期审批提醒任务，只记录日志，不改变审批状态
type ApprovalOverdueJob struct {
	approvals *logic.ApprovalLogic
	config    *config.Config
}

// NewApprovalOverdueJob 创建逾期审批提醒任务
func NewApprovalOverdueJob(approvals *logic.ApprovalLogic, cfg *config.Config) *ApprovalOverdueJob {
	return &ApprovalOverdueJob{
		approvals: approvals,
		config:    cfg,
	}
}

// GetName 获取任务名称
func (j *ApprovalOverdueJob) GetName() string {
	return "approval_overdue_check"
}

// GetSchedule 获取调度配置
func (j *ApprovalOverdueJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.OverdueInterval) * time.Second)
}

// Execute 执行任务
func (j *ApprovalOverdueJob) Execute() {
	if _, err := j.Run(context.Background()); err != nil {
		logger.Error("Approval overdue check failed: %v", err)
	}
}

// Run 返回逾期审批单数量
func (j *ApprovalOverdueJob) Run(ctx context.Context) (int, error) {
	overdue, err := j.approvals.Overdue(ctx)
	if err != nil {
		return 0, err
	}
	for _, a := range overdue {
		logger.Warn("Approval %s (%s) is overdue since %s, waiting for %s",
			a.Id, a.Title, a.DueDate.Format(time.RFC3339), a.CurrentApprover)
	}
	if len(overdue) > 0 {
		logger.Info("Approval overdue check completed. %d overdue", len(overdue))
	}
	return len(overdue), nil
}
