package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ScheduleModel 项目进度计划
type ScheduleModel struct {
	Id        string    `json:"id" gorm:"primaryKey;type:varchar(128)"`
	ProjectId string    `json:"projectId" gorm:"type:varchar(64);not null;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`
	CreatedBy string    `json:"createdBy,omitempty" gorm:"type:varchar(64)"`

	// 基本信息
	Name         string `json:"name" gorm:"not null"`
	Description  string `json:"description,omitempty" gorm:"type:text"`
	TemplateId   string `json:"templateId,omitempty" gorm:"type:varchar(64)"`
	TemplateName string `json:"templateName,omitempty"`

	// 从模板复制的阶段和文档，结构不做解析
	SelectedPhases    datatypes.JSON `json:"selectedPhases" gorm:"type:jsonb"`
	SelectedDocuments datatypes.JSON `json:"selectedDocuments" gorm:"type:jsonb"`

	// 状态
	Status    ScheduleStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`
	Version   int            `json:"version" gorm:"default:1"`
	IsCurrent bool           `json:"isCurrent" gorm:"default:false"`

	// 统计
	TotalDurationDays int `json:"totalDurationDays" gorm:"default:0"`
	TotalTasks        int `json:"totalTasks" gorm:"default:0"`
	CompletedTasks    int `json:"completedTasks" gorm:"default:0"`
	Progress          int `json:"progress" gorm:"default:0"` // 进度百分比 0-100
}

// ScheduleStatus 计划状态
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "draft"     // 草稿
	ScheduleStatusActive    ScheduleStatus = "active"    // 执行中
	ScheduleStatusCompleted ScheduleStatus = "completed" // 已完成
	ScheduleStatusArchived  ScheduleStatus = "archived"  // 已归档
)

// Valid 校验状态取值
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusDraft, ScheduleStatusActive, ScheduleStatusCompleted, ScheduleStatusArchived:
		return true
	}
	return false
}

// TableName 自定义表名
func (ScheduleModel) TableName() string {
	return "schedule"
}

// ScheduleID 生成计划ID: schedule-{projectId}-{毫秒时间戳}
func ScheduleID(projectId string, createdAt time.Time) string {
	return fmt.Sprintf("schedule-%s-%d", projectId, createdAt.UnixMilli())
}

// ScheduleKeyPrefix 项目下所有计划ID的公共前缀
func ScheduleKeyPrefix(projectId string) string {
	return fmt.Sprintf("schedule-%s-", projectId)
}

// CurrentScheduleModel 项目当前计划指针
type CurrentScheduleModel struct {
	ProjectId  string    `json:"projectId" gorm:"primaryKey;type:varchar(64)"`
	ScheduleId string    `json:"scheduleId" gorm:"type:varchar(128);not null"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

// TableName 自定义表名
func (CurrentScheduleModel) TableName() string {
	return "current_schedule"
}

// Clone 深拷贝，避免内存存储被调用方修改
func (s *ScheduleModel) Clone() *ScheduleModel {
	c := *s
	if s.SelectedPhases != nil {
		c.SelectedPhases = append(datatypes.JSON{}, s.SelectedPhases...)
	}
	if s.SelectedDocuments != nil {
		c.SelectedDocuments = append(datatypes.JSON{}, s.SelectedDocuments...)
	}
	return &c
}
