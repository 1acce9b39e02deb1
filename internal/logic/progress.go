package logic

import (
	"math"
	"time"

	"github.com/blues/civicops/internal/model"
)

// ProgressStats 计划进度统计
type ProgressStats struct {
	TotalTasks        int `json:"totalTasks"`
	CompletedTasks    int `json:"completedTasks"`
	Progress          int `json:"progress"`
	TotalDurationDays int `json:"totalDurationDays"`
}

// ComputeProgress 根据任务清单计算进度，阶段和文档记录不计入任务数
func ComputeProgress(tasks []*model.TaskModel) ProgressStats {
	var (
		stats      ProgressStats
		hours      float64
		start, end *time.Time
	)

	for _, t := range tasks {
		if t.PlannedStartDate != nil && (start == nil || t.PlannedStartDate.Before(*start)) {
			start = t.PlannedStartDate
		}
		if t.PlannedEndDate != nil && (end == nil || t.PlannedEndDate.After(*end)) {
			end = t.PlannedEndDate
		}
		if t.Kind != model.TaskKindTask && t.Kind != "" {
			continue
		}
		stats.TotalTasks++
		hours += t.EstimatedHours
		if t.Status == model.TaskStatusCompleted {
			stats.CompletedTasks++
		}
	}

	if stats.TotalTasks > 0 {
		stats.Progress = stats.CompletedTasks * 100 / stats.TotalTasks
	}

	switch {
	case start != nil && end != nil && end.After(*start):
		stats.TotalDurationDays = int(math.Ceil(end.Sub(*start).Hours() / 24))
	case hours > 0:
		stats.TotalDurationDays = int(math.Ceil(hours / hoursPerDay))
	}
	return stats
}
