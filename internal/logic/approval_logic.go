package logic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/model"
	"github.com/blues/civicops/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Decision 审批动作
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// ParseDecision 解析审批动作
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionDeny:
		return DecisionDeny, nil
	}
	return "", validationError("action must be approve or deny, got %q", s)
}

// Actor 执行审批的用户
type Actor struct {
	Username string
	Role     model.Role
}

// ApprovalSummary 审批统计，读取时计算
type ApprovalSummary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Overdue  int `json:"overdue"`
}

// ActionResult 审批动作结果
type ActionResult struct {
	Approval *model.ApprovalModel `json:"approval"`
	// Changed 为 false 表示该环节此前已处理，本次调用没有产生变化
	Changed bool `json:"changed"`
}

// NewApprovalInput 创建审批单参数
type NewApprovalInput struct {
	Type          model.ApprovalType
	Title         string
	Description   string
	Amount        int64
	ProjectId     string
	ProjectName   string
	RequestedBy   string
	Priority      string
	Category      string
	DueDate       *time.Time
	Justification string
	Attachments   []string
	// StepDueDates 各审批环节的提醒截止时间，按角色索引
	StepDueDates map[model.Role]time.Time
}

// ApprovalLogic 审批链业务逻辑
type ApprovalLogic struct {
	approvals repository.ApprovalRepository
	now       func() time.Time
	mu        sync.Mutex // 串行化同一进程内的审批动作
}

// NewApprovalLogic 创建审批链业务逻辑
func NewApprovalLogic(approvals repository.ApprovalRepository, opts ...Option) *ApprovalLogic {
	s := applyOptions(opts)
	return &ApprovalLogic{
		approvals: approvals,
		now:       s.now,
	}
}

// NewApproval 构造审批单：提交即视为项目经理已同意，下一环节为区域经理
func NewApproval(input NewApprovalInput, now time.Time) (*model.ApprovalModel, error) {
	if !input.Type.Valid() {
		return nil, validationError("invalid approval type %q", input.Type)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, validationError("title is required")
	}

	chain := make(datatypes.JSONSlice[model.ApprovalStep], 0, len(model.ApprovalChainRoles))
	for _, role := range model.ApprovalChainRoles {
		step := model.ApprovalStep{Role: role, Status: model.StepStatusPending}
		if due, ok := input.StepDueDates[role]; ok {
			d := due
			step.DueDate = &d
		}
		chain = append(chain, step)
	}
	submitted := now
	chain[0].Status = model.StepStatusApproved
	chain[0].ApprovedBy = input.RequestedBy
	chain[0].ApprovedAt = &submitted

	priority := input.Priority
	if priority == "" {
		priority = "medium"
	}

	return &model.ApprovalModel{
		Id:              uuid.NewString(),
		CreatedAt:       now,
		UpdatedAt:       now,
		Type:            input.Type,
		Title:           input.Title,
		Description:     input.Description,
		Amount:          input.Amount,
		ProjectId:       input.ProjectId,
		ProjectName:     input.ProjectName,
		RequestedBy:     input.RequestedBy,
		CurrentApprover: model.ApprovalChainRoles[1],
		ApprovalChain:   chain,
		Status:          model.ApprovalStatusInReview,
		Priority:        priority,
		Category:        input.Category,
		SubmittedAt:     now,
		DueDate:         input.DueDate,
		Justification:   input.Justification,
		Attachments:     append(datatypes.JSONSlice[string]{}, input.Attachments...),
	}, nil
}

// CreateApproval 创建并保存审批单
func (l *ApprovalLogic) CreateApproval(ctx context.Context, input NewApprovalInput) (*model.ApprovalModel, error) {
	approval, err := NewApproval(input, l.now())
	if err != nil {
		return nil, err
	}
	if err := l.approvals.Create(ctx, approval); err != nil {
		return nil, fmt.Errorf("creating approval: %w", err)
	}
	return approval, nil
}

// GetApproval 获取审批单
func (l *ApprovalLogic) GetApproval(ctx context.Context, id string) (*model.ApprovalModel, error) {
	approval, err := l.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "approval %s", id)
	}
	return approval, nil
}

// Act 以 actor 的角色处理审批链中对应的环节。
// 只能处理 currentApprover 对应的待审批环节；该环节已处理过时不报错也不做修改。
func (l *ApprovalLogic) Act(ctx context.Context, id string, actor Actor, decision Decision, comments string) (*ActionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	approval, err := l.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "approval %s", id)
	}

	idx := approval.StepFor(actor.Role)
	if idx < 0 {
		return nil, fmt.Errorf("%w: role %s has no step in the approval chain", ErrInvalidAction, actor.Role)
	}
	step := &approval.ApprovalChain[idx]
	if step.Status != model.StepStatusPending {
		return &ActionResult{Approval: approval, Changed: false}, nil
	}
	if approval.Status.Terminal() {
		return nil, fmt.Errorf("%w: approval %s is already %s", ErrInvalidAction, id, approval.Status)
	}
	if approval.CurrentApprover != actor.Role {
		return nil, fmt.Errorf("%w: approval %s is waiting for %s, not %s",
			ErrInvalidAction, id, approval.CurrentApprover, actor.Role)
	}

	now := l.now()
	at := now
	step.ApprovedBy = actor.Username
	step.ApprovedAt = &at
	step.Comments = comments

	switch decision {
	case DecisionDeny:
		step.Status = model.StepStatusRejected
		approval.Status = model.ApprovalStatusRejected
	case DecisionApprove:
		step.Status = model.StepStatusApproved
		if idx == len(approval.ApprovalChain)-1 {
			approval.Status = model.ApprovalStatusApproved
		} else {
			approval.CurrentApprover = approval.ApprovalChain[idx+1].Role
		}
	default:
		return nil, validationError("unknown decision %q", decision)
	}
	approval.UpdatedAt = now

	if err := l.approvals.Update(ctx, approval); err != nil {
		return nil, notFound(err, "approval %s", id)
	}

	logger.Info("Approval %s: %s by %s (%s), status %s, current approver %s",
		id, decision, actor.Username, actor.Role, approval.Status, approval.CurrentApprover)
	return &ActionResult{Approval: approval, Changed: true}, nil
}

// ListPending 返回角色可见的审批单及统计。
// 区域经理和部长只看到当前轮到自己处理的审批单。
func (l *ApprovalLogic) ListPending(ctx context.Context, role model.Role, filter repository.ApprovalFilter) ([]*model.ApprovalModel, ApprovalSummary, error) {
	list, err := l.approvals.List(ctx, filter)
	if err != nil {
		return nil, ApprovalSummary{}, fmt.Errorf("listing approvals: %w", err)
	}

	visible := make([]*model.ApprovalModel, 0, len(list))
	for _, a := range list {
		if VisibleTo(a, role) {
			visible = append(visible, a)
		}
	}
	return visible, Summarize(visible, l.now()), nil
}

// Overdue 返回审批中且已超过截止时间的审批单
func (l *ApprovalLogic) Overdue(ctx context.Context) ([]*model.ApprovalModel, error) {
	list, err := l.approvals.List(ctx, repository.ApprovalFilter{Status: model.ApprovalStatusInReview})
	if err != nil {
		return nil, fmt.Errorf("listing approvals: %w", err)
	}
	now := l.now()
	var overdue []*model.ApprovalModel
	for _, a := range list {
		if a.IsOverdue(now) {
			overdue = append(overdue, a)
		}
	}
	return overdue, nil
}

// VisibleTo 判断审批单对角色是否可见
func VisibleTo(a *model.ApprovalModel, role model.Role) bool {
	switch role {
	case model.RoleRDCManager, model.RoleMinister:
		idx := a.StepFor(role)
		return idx >= 0 &&
			a.Status == model.ApprovalStatusInReview &&
			a.CurrentApprover == role &&
			a.ApprovalChain[idx].Status == model.StepStatusPending
	case model.RoleAdmin, model.RolePM:
		return true
	}
	return false
}

// Summarize 统计审批单状态
func Summarize(list []*model.ApprovalModel, now time.Time) ApprovalSummary {
	summary := ApprovalSummary{Total: len(list)}
	for _, a := range list {
		switch a.Status {
		case model.ApprovalStatusInReview:
			summary.Pending++
		case model.ApprovalStatusApproved:
			summary.Approved++
		case model.ApprovalStatusRejected:
			summary.Rejected++
		}
		if a.IsOverdue(now) {
			summary.Overdue++
		}
	}
	return summary
}
