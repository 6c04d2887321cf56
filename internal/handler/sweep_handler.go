package handler

import (
	"context"
	"errors"
	"net/http"

	"focusflow/internal/calendar"
	"focusflow/internal/model"
	"focusflow/internal/service/recurrence"
	"focusflow/pkg/logger"
	"focusflow/pkg/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SweepRunner interface {
	RunSweep(ctx context.Context, req recurrence.SweepRequest) (*recurrence.SweepReport, error)
}

type SweepHandler struct {
	runner SweepRunner
	logger *zap.Logger
}

func NewSweepHandler(runner SweepRunner, logger *zap.Logger) *SweepHandler {
	return &SweepHandler{runner: runner, logger: logger}
}

type sweepScheduleBody struct {
	Enabled        *bool    `json:"enabled"`
	DaysOfWeek     []string `json:"days_of_week"`
	DailyTaskCount int      `json:"daily_task_count"`
}

type sweepEntityBody struct {
	model.RecurringEntity
	Schedule *sweepScheduleBody `json:"schedule,omitempty"`
}

type SweepBody struct {
	ForceCheck bool              `json:"force_check"`
	Entities   []sweepEntityBody `json:"entities"`
	EntityIDs  []uuid.UUID       `json:"entity_ids"`
	DayOfWeek  string            `json:"day_of_week"`
}

// TriggerSweep POST /api/v1/recurrence/sweeps
func (h *SweepHandler) TriggerSweep(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var body SweepBody
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Warn("TriggerSweep: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// 强制 sweep 绕过限流和当日去重，需要单独的权限
	if body.ForceCheck {
		if err := requirePermission(c, rbac.PermissionForceSweep); err != nil {
			log.Warn("TriggerSweep: force denied", zap.Error(err))
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
	}

	req, err := body.toRequest(log)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Info("TriggerSweep request received",
		zap.Bool("force_check", req.ForceCheck),
		zap.Int("entities", len(req.Entities)),
		zap.Int("entity_ids", len(req.EntityIDs)),
		zap.String("day_of_week", req.DayOverride),
		zap.String("client_ip", c.ClientIP()),
	)

	report, err := h.runner.RunSweep(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, recurrence.ErrInvalidDayOverride) {
			log.Warn("TriggerSweep: invalid day override", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("TriggerSweep: sweep aborted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info("TriggerSweep: success", zap.Any("status_count", report.StatusCount()))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"day":     report.Day,
		"results": report.Results,
	})
}

func (b SweepBody) toRequest(log *zap.Logger) (recurrence.SweepRequest, error) {
	req := recurrence.SweepRequest{
		ForceCheck:  b.ForceCheck,
		EntityIDs:   b.EntityIDs,
		DayOverride: b.DayOfWeek,
	}
	for _, e := range b.Entities {
		if e.ID == uuid.Nil {
			return req, errors.New("entity id is required")
		}
		entity := e.RecurringEntity
		if entity.Kind == "" {
			entity.Kind = model.EntityKindProject
		}
		if e.Schedule != nil {
			enabled := true
			if e.Schedule.Enabled != nil {
				enabled = *e.Schedule.Enabled
			}
			entity.Schedule = &model.RecurrenceSchedule{
				EntityID:       entity.ID,
				Enabled:        enabled,
				DaysOfWeek:     calendar.ParseDays(e.Schedule.DaysOfWeek, log),
				DailyTaskCount: e.Schedule.DailyTaskCount,
			}
		}
		req.Entities = append(req.Entities, entity)
	}
	return req, nil
}
