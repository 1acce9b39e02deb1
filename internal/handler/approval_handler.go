package handler

import (
	"net/http"

	"github.com/blues/civicops/internal/auth"
	"github.com/blues/civicops/internal/logic"
	"github.com/blues/civicops/internal/model"
	"github.com/blues/civicops/internal/repository"
	"github.com/gin-gonic/gin"
)

// ApprovalHandler 审批处理器
type ApprovalHandler struct {
	approvalLogic *logic.ApprovalLogic
}

// NewApprovalHandler 创建审批处理器
func NewApprovalHandler(approvalLogic *logic.ApprovalLogic) *ApprovalHandler {
	return &ApprovalHandler{approvalLogic: approvalLogic}
}

// GetPendingApprovals 获取当前角色可见的审批单
func (h *ApprovalHandler) GetPendingApprovals(c *gin.Context) {
	session, ok := auth.CurrentSession(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter := repository.ApprovalFilter{
		Type:   model.ApprovalType(c.Query("type")),
		Status: model.ApprovalStatus(c.Query("status")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		ErrorResponse(c, http.StatusBadRequest, "Invalid approval type")
		return
	}
	switch filter.Status {
	case "", model.ApprovalStatusInReview, model.ApprovalStatusApproved, model.ApprovalStatusRejected:
	default:
		ErrorResponse(c, http.StatusBadRequest, "Invalid approval status")
		return
	}

	approvals, summary, err := h.approvalLogic.ListPending(c.Request.Context(), session.Role, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, PendingApprovalsResponse{Approvals: approvals, Summary: summary})
}

// GetApproval 获取审批单详情
func (h *ApprovalHandler) GetApproval(c *gin.Context) {
	approval, err := h.approvalLogic.GetApproval(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, approval)
}

// ActOnApproval 以当前角色同意或驳回审批单
func (h *ApprovalHandler) ActOnApproval(c *gin.Context) {
	session, ok := auth.CurrentSession(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req ApprovalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	decision, err := logic.ParseDecision(req.Action)
	if err != nil {
		handleError(c, err)
		return
	}

	actor := logic.Actor{Username: session.Username, Role: session.Role}
	result, err := h.approvalLogic.Act(c.Request.Context(), c.Param("id"), actor, decision, req.Comments)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ApprovalActionResponse{Success: true, Result: result})
}
