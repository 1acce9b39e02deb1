package logic

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/blues/civicops/internal/model"
	"gorm.io/datatypes"
)

// hoursPerDay 按工时估算工期时每天的工时
const hoursPerDay = 8.0

// phaseTemplate 模板中的阶段，其余字段保持原样存放在计划中
type phaseTemplate struct {
	Id           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	DurationDays int            `json:"durationDays"`
	Tasks        []taskTemplate `json:"tasks"`
}

type taskTemplate struct {
	Id             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	EstimatedHours float64        `json:"estimatedHours"`
	RequiredSkills []string       `json:"requiredSkills"`
	Deliverables   []string       `json:"deliverables"`
	Subtasks       []taskTemplate `json:"subtasks"`
}

type documentTemplate struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// phaseExpansion 模板展开结果
type phaseExpansion struct {
	Tasks        []*model.TaskModel
	DurationDays int
}

// taskIDGenerator 同一批次的任务共用创建时间戳
type taskIDGenerator struct {
	scheduleId string
	batch      int64
	seq        int
}

func newTaskIDGenerator(scheduleId string, batch time.Time) *taskIDGenerator {
	return &taskIDGenerator{scheduleId: scheduleId, batch: batch.UnixMilli()}
}

func (g *taskIDGenerator) next() string {
	g.seq++
	return fmt.Sprintf("task-%s-%d-%d", g.scheduleId, g.batch, g.seq)
}

// expandPhases 将选中的阶段和文档展开为任务记录。
// 无法解析的阶段或文档保留在计划中，但不生成任务。
func expandPhases(scheduleId string, phases, documents datatypes.JSON, now time.Time) phaseExpansion {
	ids := newTaskIDGenerator(scheduleId, now)
	var (
		out        phaseExpansion
		order      int
		totalHours float64
		phaseDays  int
	)

	newRecord := func(kind model.TaskKind, name, description string) *model.TaskModel {
		t := &model.TaskModel{
			Id:             ids.next(),
			ScheduleId:     scheduleId,
			Kind:           kind,
			OrderIndex:     order,
			Name:           name,
			Description:    description,
			Status:         model.TaskStatusNotStarted,
			Dependencies:   datatypes.JSONSlice[string]{},
			RequiredSkills: datatypes.JSONSlice[string]{},
			Deliverables:   datatypes.JSONSlice[string]{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		order++
		out.Tasks = append(out.Tasks, t)
		return t
	}

	var addTask func(tpl taskTemplate, phaseId string, parent *model.TaskModel)
	addTask = func(tpl taskTemplate, phaseId string, parent *model.TaskModel) {
		t := newRecord(model.TaskKindTask, tpl.Name, tpl.Description)
		t.PhaseId = phaseId
		t.EstimatedHours = tpl.EstimatedHours
		t.RequiredSkills = append(t.RequiredSkills, tpl.RequiredSkills...)
		t.Deliverables = append(t.Deliverables, tpl.Deliverables...)
		if parent != nil {
			parentId := parent.Id
			t.ParentTaskId = &parentId
			t.IsSubtask = true
			t.Level = parent.Level + 1
		}
		totalHours += tpl.EstimatedHours
		for _, sub := range tpl.Subtasks {
			addTask(sub, phaseId, t)
		}
	}

	for _, raw := range rawElements(phases) {
		var tpl phaseTemplate
		if err := json.Unmarshal(raw, &tpl); err != nil || tpl.Name == "" {
			continue
		}
		phase := newRecord(model.TaskKindPhase, tpl.Name, tpl.Description)
		phaseDays += tpl.DurationDays
		for _, taskTpl := range tpl.Tasks {
			addTask(taskTpl, phase.Id, nil)
		}
	}

	for _, raw := range rawElements(documents) {
		var tpl documentTemplate
		if err := json.Unmarshal(raw, &tpl); err != nil || tpl.Name == "" {
			continue
		}
		newRecord(model.TaskKindDocument, tpl.Name, tpl.Description)
	}

	out.DurationDays = phaseDays
	if out.DurationDays == 0 && totalHours > 0 {
		out.DurationDays = int(math.Ceil(totalHours / hoursPerDay))
	}
	return out
}

// rawElements 将 JSON 数组拆分为元素，非数组返回 nil
func rawElements(data datatypes.JSON) []json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil
	}
	return elems
}
