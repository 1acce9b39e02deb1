package model

import (
	"time"

	"gorm.io/datatypes"
)

// Role 用户角色
type Role string

const (
	RoleAdmin      Role = "admin"       // 系统管理员
	RolePM         Role = "pm"          // 项目经理
	RoleRDCManager Role = "rdc_manager" // 区域经理
	RoleMinister   Role = "minister"    // 部长
	RoleViewer     Role = "viewer"      // 只读
)

// Valid 校验角色取值
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePM, RoleRDCManager, RoleMinister, RoleViewer:
		return true
	}
	return false
}

// ApprovalChainRoles 审批链固定顺序
var ApprovalChainRoles = []Role{RolePM, RoleRDCManager, RoleMinister}

// ApprovalModel 审批单
type ApprovalModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`

	// 基本信息
	Type        ApprovalType `json:"type" gorm:"type:varchar(32);not null;index"`
	Title       string       `json:"title" gorm:"not null"`
	Description string       `json:"description" gorm:"type:text"`
	Amount      int64        `json:"amount" gorm:"default:0"`
	ProjectId   string       `json:"projectId" gorm:"type:varchar(64);index"`
	ProjectName string       `json:"projectName,omitempty"`
	RequestedBy string       `json:"requestedBy" gorm:"type:varchar(64)"`

	// 审批流转
	CurrentApprover Role                              `json:"currentApprover" gorm:"type:varchar(32)"`
	ApprovalChain   datatypes.JSONSlice[ApprovalStep] `json:"approvalChain" gorm:"type:jsonb"`
	Status          ApprovalStatus                    `json:"status" gorm:"type:varchar(20);default:'in_review';index"`

	Priority      string                      `json:"priority" gorm:"type:varchar(16);default:'medium'"` // low, medium, high, critical
	Category      string                      `json:"category,omitempty"`
	SubmittedAt   time.Time                   `json:"submittedAt"`
	DueDate       *time.Time                  `json:"dueDate,omitempty"`
	Justification string                      `json:"justification,omitempty" gorm:"type:text"`
	Attachments   datatypes.JSONSlice[string] `json:"attachments" gorm:"type:jsonb"`
}

// ApprovalStep 审批链中的一个环节
type ApprovalStep struct {
	Role       Role       `json:"role"`
	Status     StepStatus `json:"status"`
	ApprovedBy string     `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"` // 仅作提醒，不会自动流转
	Comments   string     `json:"comments,omitempty"`
}

// ApprovalType 审批类型
type ApprovalType string

const (
	ApprovalTypeBudgetIncrease   ApprovalType = "budget_increase"   // 预算追加
	ApprovalTypeChangeRequest    ApprovalType = "change_request"    // 变更申请
	ApprovalTypeContractApproval ApprovalType = "contract_approval" // 合同审批
)

// Valid 校验类型取值
func (t ApprovalType) Valid() bool {
	switch t {
	case ApprovalTypeBudgetIncrease, ApprovalTypeChangeRequest, ApprovalTypeContractApproval:
		return true
	}
	return false
}

// ApprovalStatus 审批单整体状态，由审批链推导
type ApprovalStatus string

const (
	ApprovalStatusInReview ApprovalStatus = "in_review" // 审批中
	ApprovalStatusApproved ApprovalStatus = "approved"  // 已通过
	ApprovalStatusRejected ApprovalStatus = "rejected"  // 已驳回
)

// Terminal 是否为终态
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// StepStatus 审批环节状态
type StepStatus string

const (
	StepStatusPending  StepStatus = "pending"  // 待审批
	StepStatusApproved StepStatus = "approved" // 已同意
	StepStatusRejected StepStatus = "rejected" // 已拒绝
)

// TableName 自定义表名
func (ApprovalModel) TableName() string {
	return "approval"
}

// StepFor 返回指定角色的审批环节下标，不存在时返回 -1
func (a *ApprovalModel) StepFor(role Role) int {
	for i := range a.ApprovalChain {
		if a.ApprovalChain[i].Role == role {
			return i
		}
	}
	return -1
}

// IsOverdue 审批中且已过截止时间
func (a *ApprovalModel) IsOverdue(now time.Time) bool {
	return a.Status == ApprovalStatusInReview && a.DueDate != nil && a.DueDate.Before(now)
}

// Clone 深拷贝，避免内存存储被调用方修改
func (a *ApprovalModel) Clone() *ApprovalModel {
	c := *a
	if a.ApprovalChain != nil {
		c.ApprovalChain = make(datatypes.JSONSlice[ApprovalStep], len(a.ApprovalChain))
		copy(c.ApprovalChain, a.ApprovalChain)
	}
	if a.Attachments != nil {
		c.Attachments = append(datatypes.JSONSlice[string]{}, a.Attachments...)
	}
	return &c
}
