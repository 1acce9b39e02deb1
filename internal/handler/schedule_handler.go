package handler

import (
	"errors"
	"net/http"

	"github.com/blues/civicops/internal/auth"
	"github.com/blues/civicops/internal/logic"
	"github.com/blues/civicops/internal/model"
	"github.com/gin-gonic/gin"
)

// ScheduleHandler 计划处理器
type ScheduleHandler struct {
	scheduleLogic *logic.ScheduleLogic
}

// NewScheduleHandler 创建计划处理器
func NewScheduleHandler(scheduleLogic *logic.ScheduleLogic) *ScheduleHandler {
	return &ScheduleHandler{scheduleLogic: scheduleLogic}
}

// CreateSchedule 创建计划
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var input logic.CreateScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	if session, ok := auth.CurrentSession(c); ok {
		input.CreatedBy = session.Username
	}

	schedule, err := h.scheduleLogic.CreateSchedule(c.Request.Context(), c.Param("projectId"), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// GetCurrentSchedule 获取项目当前计划
func (h *ScheduleHandler) GetCurrentSchedule(c *gin.Context) {
	schedule, err := h.scheduleLogic.GetCurrentSchedule(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		if errors.Is(err, logic.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "No schedule found")
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// ListSchedules 获取项目全部计划
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.scheduleLogic.ListSchedules(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		handleError(c, err)
		return
	}
	if schedules == nil {
		schedules = []*model.ScheduleModel{}
	}

	c.JSON(http.StatusOK, gin.H{
		"schedules": schedules,
		"total":     len(schedules),
	})
}

// UpdateSchedule 部分更新计划
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var patch logic.SchedulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err)
		return
	}

	schedule, err := h.scheduleLogic.UpdateSchedule(c.Request.Context(), c.Param("projectId"), c.Param("scheduleId"), patch)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// DeleteCurrentSchedule 删除项目的计划
func (h *ScheduleHandler) DeleteCurrentSchedule(c *gin.Context) {
	if _, err := h.scheduleLogic.DeleteCurrentSchedule(c.Request.Context(), c.Param("projectId")); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Schedule deleted successfully"})
}
