package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mqcontracts "focusflow/contracts/mq"
	"focusflow/internal/model"
	"focusflow/internal/service/goal"
	"focusflow/pkg/logger"
	"focusflow/pkg/mq"
	"focusflow/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GoalRecalculator interface {
	RecalculateGoal(ctx context.Context, goalID uuid.UUID) (goal.Outcome, error)
}

// GoalUpsertedHandler 目标创建/编辑后立即重算
type GoalUpsertedHandler struct {
	recalculator GoalRecalculator
	retry        retryPolicy
	logger       *zap.Logger
}

func NewGoalUpsertedHandler(recalculator GoalRecalculator, retryCounter RetryTracker, logger *zap.Logger) *GoalUpsertedHandler {
	return &GoalUpsertedHandler{
		recalculator: recalculator,
		retry:        retryPolicy{counter: retryCounter, logger: logger},
		logger:       logger,
	}
}

func (h *GoalUpsertedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.GoalUpsertedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Invalid GoalUpsertedPayload, sending to DLQ",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		return mq.Permanent(fmt.Errorf("bad_payload: %w", err))
	}

	log := logger.WithTrace(ctx, h.logger).With(zap.String("goal_id", p.GoalID))

	goalID, err := uuid.Parse(p.GoalID)
	if err != nil {
		log.Error("Invalid goal_id, sending to DLQ", zap.Error(err))
		return mq.Permanent(fmt.Errorf("invalid goal_id %q: %w", p.GoalID, err))
	}

	retryKey := util.FormatRetryKey("goal_upserted", p.GoalID)
	outcome, err := h.recalculator.RecalculateGoal(ctx, goalID)
	if err != nil {
		// 目标已被删除 → ack
		if errors.Is(err, model.ErrGoalNotFound) {
			log.Info("Goal no longer exists, skip")
			return nil
		}
		return h.retry.classify(ctx, "RecalculateGoal", retryKey, err)
	}
	h.retry.reset(ctx, retryKey)

	log.Info("Goal recalculated",
		zap.String("outcome", string(outcome.Kind)),
		zap.Int("previous_count", outcome.PreviousCount),
		zap.Int("new_count", outcome.NewCount),
	)
	return nil
}
