package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
	)

	// 慢查询耗时（秒）
	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~12s
		},
	)

	// 任务生成计数
	TaskGenerationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_generation_count",
			Help: "Total number of tasks generated",
		},
		[]string{"entity_kind"}, // project, task_list
	)

	// 每次 sweep 的实体结果
	SweepEntityResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurrence_sweep_entity_results_total",
			Help: "Per-entity outcomes of recurrence sweeps",
		},
		[]string{"status"},
	)

	// sweep 耗时（秒）
	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recurrence_sweep_duration_seconds",
			Help:    "Recurrence sweep duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"forced"},
	)

	// 目标重算结果
	GoalRecalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_recalculations_total",
			Help: "Goal recalculation outcomes",
		},
		[]string{"outcome"}, // updated, unchanged, skipped_missing_window, error
	)
)

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录一次慢查询（SQL 只写日志，不作为 label）
func IncrementSlowQuery(duration time.Duration) {
	SlowQueryCount.Inc()
	SlowQueryDuration.Observe(duration.Seconds())
}

// AddTaskGeneration 增加任务生成计数
func AddTaskGeneration(entityKind string, n int) {
	TaskGenerationCount.WithLabelValues(entityKind).Add(float64(n))
}

// IncrementSweepResult 记录 sweep 中单个实体的结果
func IncrementSweepResult(status string) {
	SweepEntityResults.WithLabelValues(status).Inc()
}

// RecordSweepDuration 记录 sweep 耗时
func RecordSweepDuration(forced bool, duration time.Duration) {
	label := "false"
	if forced {
		label = "true"
	}
	SweepDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncrementGoalRecalculation 记录目标重算结果
func IncrementGoalRecalculation(outcome string) {
	GoalRecalculations.WithLabelValues(outcome).Inc()
}
