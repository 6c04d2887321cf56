package handler

import (
	"context"
	"errors"
	"net/http"

	"focusflow/internal/model"
	"focusflow/internal/service/goal"
	"focusflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GoalRecalculator interface {
	RecalculateAll(ctx context.Context) (*goal.PassReport, error)
	RecalculateGoal(ctx context.Context, goalID uuid.UUID) (goal.Outcome, error)
	BootstrapInitialCounts(ctx context.Context) (*goal.PassReport, error)
}

type GoalHandler struct {
	recalculator GoalRecalculator
	logger       *zap.Logger
}

func NewGoalHandler(recalculator GoalRecalculator, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{recalculator: recalculator, logger: logger}
}

// RecalculateGoal POST /api/v1/goals/:id/recalculate
func (h *GoalHandler) RecalculateGoal(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)
	idStr := c.Param("id")

	goalID, err := uuid.Parse(idStr)
	if err != nil {
		log.Warn("RecalculateGoal: invalid goal id", zap.String("goal_id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
		return
	}

	outcome, err := h.recalculator.RecalculateGoal(c.Request.Context(), goalID)
	if err != nil {
		if errors.Is(err, model.ErrGoalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
			return
		}
		log.Error("RecalculateGoal: failed", zap.String("goal_id", idStr), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info("RecalculateGoal: success",
		zap.String("goal_id", idStr),
		zap.String("outcome", string(outcome.Kind)),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "outcome": outcome})
}

// RecalculateAll POST /api/v1/goals/recalculate
func (h *GoalHandler) RecalculateAll(c *gin.Context) {
	h.runPass(c, "RecalculateAll", h.recalculator.RecalculateAll)
}

// Bootstrap POST /api/v1/goals/bootstrap
func (h *GoalHandler) Bootstrap(c *gin.Context) {
	h.runPass(c, "Bootstrap", h.recalculator.BootstrapInitialCounts)
}

func (h *GoalHandler) runPass(c *gin.Context, name string, fn func(context.Context) (*goal.PassReport, error)) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	report, err := fn(c.Request.Context())
	if err != nil {
		log.Error(name+": pass aborted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info(name+": success", zap.Int("goals", len(report.Outcomes)))
	c.JSON(http.StatusOK, gin.H{"success": true, "outcomes": report.Outcomes})
}
