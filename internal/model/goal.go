package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrGoalNotFound = errors.New("goal not found")

type GoalType string

const (
	GoalTypeDaily      GoalType = "daily"
	GoalTypeWeekly     GoalType = "weekly"
	GoalTypeSingleDate GoalType = "single_date"
	GoalTypeDatePeriod GoalType = "date_period"
)

// ProjectGoal 项目目标；CurrentCount 只由重算写入
type ProjectGoal struct {
	ID            uuid.UUID  `json:"id"`
	ProjectID     uuid.UUID  `json:"project_id"`
	GoalType      GoalType   `json:"goal_type"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	TaskCountGoal int        `json:"task_count_goal"`
	CurrentCount  int        `json:"current_count"`
	Reward        *string    `json:"reward,omitempty"`
	IsEnabled     bool       `json:"is_enabled"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
