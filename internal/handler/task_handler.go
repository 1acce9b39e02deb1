package handler

import (
	"net/http"

	"github.com/blues/civicops/internal/logic"
	"github.com/gin-gonic/gin"
)

// TaskHandler 计划任务处理器
type TaskHandler struct {
	taskLogic *logic.TaskLogic
}

// NewTaskHandler 创建计划任务处理器
func NewTaskHandler(taskLogic *logic.TaskLogic) *TaskHandler {
	return &TaskHandler{taskLogic: taskLogic}
}

// GetScheduleTasks 获取计划任务清单
func (h *TaskHandler) GetScheduleTasks(c *gin.Context) {
	tasks, err := h.taskLogic.GetScheduleTasks(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetTaskHierarchy 获取任务层级
func (h *TaskHandler) GetTaskHierarchy(c *gin.Context) {
	hierarchy, err := h.taskLogic.GetTaskHierarchy(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, hierarchy)
}

// SaveBulkTasks 批量保存任务清单
func (h *TaskHandler) SaveBulkTasks(c *gin.Context) {
	var req BulkTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Tasks == nil {
		ErrorResponse(c, http.StatusBadRequest, "tasks is required")
		return
	}

	count, err := h.taskLogic.SaveBulkTasks(c.Request.Context(), c.Param("scheduleId"), req.Tasks)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, BulkTasksResponse{Success: true, TaskCount: count})
}

// UpdateTask 部分更新单个任务
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var patch logic.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.taskLogic.UpdateTask(c.Request.Context(), c.Param("scheduleId"), c.Param("taskId"), patch)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}
