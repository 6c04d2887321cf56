package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProgressNotStarted = "Not started"
	ProgressCompleted  = "Completed"
)

type Task struct {
	ID          uuid.UUID  `json:"id"`
	TaskName    string     `json:"task_name"`
	Progress    string     `json:"progress"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	DateStarted *time.Time `json:"date_started,omitempty"`
	TaskListID  *uuid.UUID `json:"task_list_id,omitempty"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
