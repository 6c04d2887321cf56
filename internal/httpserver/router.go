package httpserver

import (
	"context"
	"net/http"
	"time"

	"focusflow/internal/handler"
	"focusflow/pkg/otel"
	"focusflow/pkg/rbac"
	"focusflow/pkg/trace"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger 就绪检查依赖（pgxpool.Pool 满足）
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker MQ 连接状态（mq.Publisher 满足）
type ConnChecker interface {
	IsConnected() bool
}

type Deps struct {
	Sweeps    *handler.SweepHandler
	Goals     *handler.GoalHandler
	JWTSecret string
	DB        Pinger
	MQ        ConnChecker
	Logger    *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otel.GinMiddleware())
	r.Use(requestLogger(d.Logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if d.DB != nil {
			if err := d.DB.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		if d.MQ != nil && !d.MQ.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(d.JWTSecret))
	{
		api.POST("/recurrence/sweeps", RequirePermission(rbac.PermissionRunSweep), d.Sweeps.TriggerSweep)

		api.POST("/goals/recalculate", RequirePermission(rbac.PermissionRecalcGoals), d.Goals.RecalculateAll)
		api.POST("/goals/bootstrap", RequirePermission(rbac.PermissionBootstrapGoal), d.Goals.Bootstrap)
		api.POST("/goals/:id/recalculate", RequirePermission(rbac.PermissionRecalcGoals), d.Goals.RecalculateGoal)
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// 上游传入的 X-Trace-ID 优先，其次 OTel span，最后新生成
		ctx := c.Request.Context()
		if incoming := c.GetHeader(trace.HeaderName); incoming != "" {
			ctx = trace.WithContext(ctx, incoming)
		}
		ctx = trace.Ensure(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(trace.HeaderName, trace.FromContext(ctx))

		c.Next()

		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", trace.FromContext(ctx)),
		)
	}
}
