package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	mqcontracts "focusflow/contracts/mq"
	"focusflow/internal/service/goal"
	"focusflow/pkg/logger"
	"focusflow/pkg/mq"
	"focusflow/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProjectRecalculator interface {
	RecalculateProject(ctx context.Context, projectID uuid.UUID) (*goal.PassReport, error)
}

// TaskCompletedHandler 任务完成后重算所属项目的目标
type TaskCompletedHandler struct {
	recalculator ProjectRecalculator
	retry        retryPolicy
	logger       *zap.Logger
}

func NewTaskCompletedHandler(recalculator ProjectRecalculator, retryCounter RetryTracker, logger *zap.Logger) *TaskCompletedHandler {
	return &TaskCompletedHandler{
		recalculator: recalculator,
		retry:        retryPolicy{counter: retryCounter, logger: logger},
		logger:       logger,
	}
}

func (h *TaskCompletedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.TaskCompletedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Invalid TaskCompletedPayload, sending to DLQ",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		return mq.Permanent(fmt.Errorf("bad_payload: %w", err))
	}

	log := logger.WithTrace(ctx, h.logger).With(
		zap.String("task_id", p.TaskID),
		zap.String("project_id", p.ProjectID),
	)

	// 不属于项目的任务不影响任何目标
	if p.ProjectID == "" {
		log.Debug("Task has no project, skip")
		return nil
	}

	projectID, err := uuid.Parse(p.ProjectID)
	if err != nil {
		log.Error("Invalid project_id, sending to DLQ", zap.Error(err))
		return mq.Permanent(fmt.Errorf("invalid project_id %q: %w", p.ProjectID, err))
	}

	log.Info("Handling task.completed event")

	retryKey := util.FormatRetryKey("task_completed", p.ProjectID)
	report, err := h.recalculator.RecalculateProject(ctx, projectID)
	if err != nil {
		return h.retry.classify(ctx, "RecalculateProject", retryKey, err)
	}
	h.retry.reset(ctx, retryKey)

	log.Info("Project goals recalculated",
		zap.Int("goals", len(report.Outcomes)),
		zap.Int("updated", report.Count(goal.OutcomeUpdated)),
		zap.Int("errors", report.Count(goal.OutcomeError)),
	)
	return nil
}
