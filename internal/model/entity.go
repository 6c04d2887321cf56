package model

import (
	"strings"
	"time"

	"focusflow/internal/calendar"

	"github.com/google/uuid"
)

type EntityKind string

const (
	EntityKindProject  EntityKind = "project"
	EntityKindTaskList EntityKind = "task_list"
)

// OverdueMarker 过期实体名称后缀
const OverdueMarker = "(overdue)"

// RecurringEntity 可按日生成任务的项目或任务清单
type RecurringEntity struct {
	ID             uuid.UUID           `json:"id"`
	Kind           EntityKind          `json:"kind"`
	Name           string              `json:"name"`
	TaskListID     *uuid.UUID          `json:"task_list_id,omitempty"`
	StartDate      *time.Time          `json:"start_date,omitempty"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
	DailyTaskCount int                 `json:"daily_task_count"`
	Schedule       *RecurrenceSchedule `json:"schedule,omitempty"` // 触发请求可内嵌，否则从库中读取
}

// IsOverdueMarked 名称是否已带过期标记
func (e *RecurringEntity) IsOverdueMarked() bool {
	return strings.Contains(e.Name, OverdueMarker)
}

// OverdueName 返回追加过期标记后的名称
func (e *RecurringEntity) OverdueName() string {
	return e.Name + " " + OverdueMarker
}

// TaskTarget 生成任务归属：项目实体写 project_id，清单实体写 task_list_id
func (e *RecurringEntity) TaskTarget() (projectID *uuid.UUID, taskListID *uuid.UUID) {
	id := e.ID
	switch e.Kind {
	case EntityKindTaskList:
		return nil, &id
	default:
		return &id, e.TaskListID
	}
}

// RecurrenceSchedule 实体的星期计划
type RecurrenceSchedule struct {
	EntityID       uuid.UUID          `json:"entity_id"`
	Enabled        bool               `json:"enabled"`
	DaysOfWeek     []calendar.DayName `json:"days_of_week"`
	DailyTaskCount int                `json:"daily_task_count"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// HasDay 计划是否包含某天
func (s *RecurrenceSchedule) HasDay(day calendar.DayName) bool {
	for _, d := range s.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// GenerationLogEntry 某实体某天已生成过任务的审计记录
type GenerationLogEntry struct {
	ID             int64     `json:"id"`
	EntityID       uuid.UUID `json:"entity_id"`
	GenerationDate time.Time `json:"generation_date"`
	TasksGenerated int       `json:"tasks_generated"`
	CreatedAt      time.Time `json:"created_at"`
}
