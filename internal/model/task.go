package model

import (
	"time"

	"gorm.io/datatypes"
)

// TaskModel 计划任务，阶段和文档也以任务记录保存，通过 Kind 区分
type TaskModel struct {
	Id           string    `json:"id" gorm:"primaryKey;type:varchar(191)"`
	ScheduleId   string    `json:"scheduleId" gorm:"primaryKey;type:varchar(128);index"`
	PhaseId      string    `json:"phaseId,omitempty" gorm:"type:varchar(191)"`
	ParentTaskId *string   `json:"parentTaskId" gorm:"type:varchar(191);index"`
	Kind         TaskKind  `json:"kind" gorm:"type:varchar(16);default:'task'"`
	OrderIndex   int       `json:"orderIndex" gorm:"default:0"`
	Level        int       `json:"level" gorm:"default:0"`
	IsSubtask    bool      `json:"isSubtask" gorm:"default:false"`
	Position     int       `json:"-"` // 保存时在清单中的位置，读取时按此排序
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`

	// 基本信息
	Name           string   `json:"name" gorm:"not null"`
	Description    string   `json:"description,omitempty" gorm:"type:text"`
	EstimatedHours float64  `json:"estimatedHours" gorm:"default:0"`
	ActualHours    *float64 `json:"actualHours,omitempty"`

	// 时间信息
	PlannedStartDate *time.Time `json:"plannedStartDate,omitempty"`
	PlannedEndDate   *time.Time `json:"plannedEndDate,omitempty"`
	ActualStartDate  *time.Time `json:"actualStartDate,omitempty"`
	ActualEndDate    *time.Time `json:"actualEndDate,omitempty"`

	// 分工
	Dependencies   datatypes.JSONSlice[string] `json:"dependencies" gorm:"type:jsonb"`
	Assignee       string                      `json:"assignee,omitempty"`
	RequiredSkills datatypes.JSONSlice[string] `json:"requiredSkills" gorm:"type:jsonb"`
	Deliverables   datatypes.JSONSlice[string] `json:"deliverables" gorm:"type:jsonb"`

	// 状态
	Status    TaskStatus                         `json:"status" gorm:"type:varchar(20);default:'not_started'"`
	Progress  int                                `json:"progress" gorm:"default:0"` // 进度百分比 0-100
	Checklist datatypes.JSONSlice[ChecklistItem] `json:"checklist,omitempty" gorm:"type:jsonb"`
}

// ChecklistItem 检查项
type ChecklistItem struct {
	Id   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TaskKind 任务记录类型
type TaskKind string

const (
	TaskKindPhase    TaskKind = "phase"    // 阶段
	TaskKindTask     TaskKind = "task"     // 任务（含子任务）
	TaskKindDocument TaskKind = "document" // 文档交付物
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started" // 未开始
	TaskStatusInProgress TaskStatus = "in_progress" // 进行中
	TaskStatusCompleted  TaskStatus = "completed"   // 已完成
	TaskStatusOnHold     TaskStatus = "on_hold"     // 暂停
	TaskStatusCancelled  TaskStatus = "cancelled"   // 已取消
)

// Valid 校验状态取值
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOnHold, TaskStatusCancelled:
		return true
	}
	return false
}

// HasParent 是否为子任务
func (t *TaskModel) HasParent() bool {
	return t.ParentTaskId != nil && *t.ParentTaskId != ""
}

// TableName 自定义表名
func (TaskModel) TableName() string {
	return "task"
}

// TaskListModel 计划任务清单头，记录清单是否已保存过
type TaskListModel struct {
	ScheduleId string    `json:"scheduleId" gorm:"primaryKey;type:varchar(128)"`
	TaskCount  int       `json:"taskCount"`
	SavedAt    time.Time `json:"savedAt"`
}

// TableName 自定义表名
func (TaskListModel) TableName() string {
	return "task_list"
}

// Clone 深拷贝，避免内存存储被调用方修改
func (t *TaskModel) Clone() *TaskModel {
	c := *t
	if t.Dependencies != nil {
		c.Dependencies = append(datatypes.JSONSlice[string]{}, t.Dependencies...)
	}
	if t.RequiredSkills != nil {
		c.RequiredSkills = append(datatypes.JSONSlice[string]{}, t.RequiredSkills...)
	}
	if t.Deliverables != nil {
		c.Deliverables = append(datatypes.JSONSlice[string]{}, t.Deliverables...)
	}
	if t.Checklist != nil {
		c.Checklist = append(datatypes.JSONSlice[ChecklistItem]{}, t.Checklist...)
	}
	return &c
}
