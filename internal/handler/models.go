package handler

import (
	"github.com/blues/civicops/internal/auth"
	"github.com/blues/civicops/internal/logic"
	"github.com/blues/civicops/internal/model"
)

// 请求模型

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// BulkTasksRequest 批量保存任务请求
type BulkTasksRequest struct {
	Tasks []*model.TaskModel `json:"tasks"`
}

// ApprovalActionRequest 审批动作请求
type ApprovalActionRequest struct {
	Action   string `json:"action"`
	Comments string `json:"comments"`
}

// 响应模型

// SessionResponse 会话信息
type SessionResponse struct {
	Username     string            `json:"username"`
	Role         model.Role        `json:"role"`
	Capabilities []auth.Capability `json:"capabilities"`
}

// BulkTasksResponse 批量保存任务响应
type BulkTasksResponse struct {
	Success   bool `json:"success"`
	TaskCount int  `json:"taskCount"`
}

// PendingApprovalsResponse 待审批列表响应
type PendingApprovalsResponse struct {
	Approvals []*model.ApprovalModel `json:"approvals"`
	Summary   logic.ApprovalSummary  `json:"summary"`
}

// ApprovalActionResponse 审批动作响应
type ApprovalActionResponse struct {
	Success bool                `json:"success"`
	Result  *logic.ActionResult `json:"result"`
}

// MessageResponse 仅包含提示信息的响应
type MessageResponse struct {
	Message string `json:"message"`
}

// ToSessionResponse 将会话转换为响应模型
func ToSessionResponse(s *auth.Session) SessionResponse {
	return SessionResponse{
		Username:     s.Username,
		Role:         s.Role,
		Capabilities: auth.CapabilitiesOf(s.Role),
	}
}
