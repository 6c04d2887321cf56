package mq

import "time"

// Routing keys
const (
	RoutingKeyTasksGenerated      = "recurrence.tasks.generated"
	RoutingKeySweepCompleted      = "recurrence.sweep.completed"
	RoutingKeyGoalProgressUpdated = "goal.progress.updated"
	RoutingKeyTaskCompleted       = "task.completed"
	RoutingKeyGoalUpserted        = "goal.upserted"
)

// TasksGeneratedPayload 通过 outbox 与任务在同一事务中写入
type TasksGeneratedPayload struct {
	EntityID       string    `json:"entity_id"`
	EntityKind     string    `json:"entity_kind"`
	GenerationDate string    `json:"generation_date"` // 2006-01-02
	TaskIDs        []string  `json:"task_ids"`
	TaskNames      []string  `json:"task_names"`
	GeneratedAt    time.Time `json:"generated_at"`
	TraceID        string    `json:"trace_id,omitempty"`
}

type SweepEntityResult struct {
	EntityID     string `json:"entity_id"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	TasksCreated int    `json:"tasks_created,omitempty"`
}

type SweepCompletedPayload struct {
	ForceCheck  bool                `json:"force_check"`
	Day         string              `json:"day"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Results     []SweepEntityResult `json:"results"`
	StatusCount map[string]int      `json:"status_count"`
}

type GoalProgressUpdatedPayload struct {
	GoalID        string    `json:"goal_id"`
	ProjectID     string    `json:"project_id"`
	GoalType      string    `json:"goal_type"`
	PreviousCount int       `json:"previous_count"`
	CurrentCount  int       `json:"current_count"`
	TaskCountGoal int       `json:"task_count_goal"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	Reached       bool      `json:"reached"`
}

// TaskCompletedPayload 由任务 CRUD 服务在 progress 变为 Completed 时发布
type TaskCompletedPayload struct {
	TaskID    string `json:"task_id"`
	ProjectID string `json:"project_id"`
}

// GoalUpsertedPayload 由目标表单创建/编辑后发布
type GoalUpsertedPayload struct {
	GoalID string `json:"goal_id"`
}
