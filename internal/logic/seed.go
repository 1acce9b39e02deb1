package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/model"
	"gorm.io/datatypes"
)

// ExampleTasks 计划尚未保存任务清单时返回的示例清单
func ExampleTasks(scheduleId string, now time.Time) []*model.TaskModel {
	day := 24 * time.Hour
	start := now.Truncate(day)
	date := func(offset int) *time.Time {
		t := start.Add(time.Duration(offset) * day)
		return &t
	}
	parentId := fmt.Sprintf("task-%s-example-1", scheduleId)

	return []*model.TaskModel{
		{
			Id:               parentId,
			ScheduleId:       scheduleId,
			Kind:             model.TaskKindTask,
			OrderIndex:       0,
			Name:             "Site survey and assessment",
			Description:      "Survey the project site and document existing conditions",
			EstimatedHours:   40,
			PlannedStartDate: date(0),
			PlannedEndDate:   date(5),
			Dependencies:     datatypes.JSONSlice[string]{},
			Assignee:         "Field Engineering",
			RequiredSkills:   datatypes.JSONSlice[string]{"surveying", "civil engineering"},
			Deliverables:     datatypes.JSONSlice[string]{"Site survey report"},
			Status:           model.TaskStatusNotStarted,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			Id:               fmt.Sprintf("task-%s-example-2", scheduleId),
			ScheduleId:       scheduleId,
			ParentTaskId:     &parentId,
			Kind:             model.TaskKindTask,
			OrderIndex:       1,
			Level:            1,
			IsSubtask:        true,
			Name:             "Topographic survey",
			EstimatedHours:   16,
			PlannedStartDate: date(0),
			PlannedEndDate:   date(2),
			Dependencies:     datatypes.JSONSlice[string]{},
			RequiredSkills:   datatypes.JSONSlice[string]{"surveying"},
			Deliverables:     datatypes.JSONSlice[string]{"Topographic map"},
			Status:           model.TaskStatusNotStarted,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			Id:               fmt.Sprintf("task-%s-example-3", scheduleId),
			ScheduleId:       scheduleId,
			Kind:             model.TaskKindTask,
			OrderIndex:       2,
			Name:             "Environmental impact assessment",
			Description:      "Prepare the environmental impact assessment for regulatory review",
			EstimatedHours:   80,
			PlannedStartDate: date(5),
			PlannedEndDate:   date(20),
			Dependencies:     datatypes.JSONSlice[string]{parentId},
			Assignee:         "Environmental Unit",
			RequiredSkills:   datatypes.JSONSlice[string]{"environmental science"},
			Deliverables:     datatypes.JSONSlice[string]{"EIA report"},
			Status:           model.TaskStatusNotStarted,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
}

// SeedDemoApprovals 审批单为空时写入演示数据，返回写入数量
func (l *ApprovalLogic) SeedDemoApprovals(ctx context.Context) (int, error) {
	count, err := l.approvals.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	now := l.now()
	day := 24 * time.Hour
	at := func(offset time.Duration) *time.Time {
		t := now.Add(offset)
		return &t
	}

	inputs := []NewApprovalInput{
		{
			Type:          model.ApprovalTypeBudgetIncrease,
			Title:         "Budget increase for Highway 7 resurfacing",
			Description:   "Additional funds required after asphalt price escalation",
			Amount:        2500000,
			ProjectId:     "proj-001",
			ProjectName:   "Highway 7 Resurfacing",
			RequestedBy:   "pm",
			Priority:      "high",
			Category:      "budget",
			DueDate:       at(3 * day),
			Justification: "Material costs rose 18% since the tender was awarded",
			Attachments:   []string{"cost-analysis.pdf", "supplier-quotes.xlsx"},
			StepDueDates: map[model.Role]time.Time{
				model.RoleRDCManager: now.Add(2 * day),
				model.RoleMinister:   now.Add(3 * day),
			},
		},
		{
			Type:          model.ApprovalTypeChangeRequest,
			Title:         "Scope change for Riverside water treatment plant",
			Description:   "Add a secondary filtration stage to the plant design",
			Amount:        750000,
			ProjectId:     "proj-002",
			ProjectName:   "Riverside Water Treatment",
			RequestedBy:   "pm",
			Priority:      "medium",
			Category:      "scope",
			DueDate:       at(-1 * day),
			Justification: "New provincial water quality regulations",
			Attachments:   []string{"design-change.pdf"},
		},
		{
			Type:          model.ApprovalTypeContractApproval,
			Title:         "Contract award for Central Library renovation",
			Description:   "Award the general contractor agreement",
			Amount:        12000000,
			ProjectId:     "proj-003",
			ProjectName:   "Central Library Renovation",
			RequestedBy:   "pm",
			Priority:      "critical",
			Category:      "procurement",
			DueDate:       at(7 * day),
			Justification: "Lowest compliant bid after public tender",
			Attachments:   []string{"bid-evaluation.pdf", "contract-draft.docx"},
		},
	}

	for _, input := range inputs {
		if _, err := l.CreateApproval(ctx, input); err != nil {
			return 0, err
		}
	}
	logger.Info("Seeded %d demo approvals", len(inputs))
	return len(inputs), nil
}
