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

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"statement"},
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

	// 认证拒绝计数
	AuthRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)

	// 打卡切换计数
	HabitToggleCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_toggle_total",
			Help: "Habit entry toggles by resulting action and outcome",
		},
		[]string{"action", "result"}, // action: create, complete, delete; result: ok, error, busy
	)

	// Time spent waiting for a per-key toggle lock.
	ToggleLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "habit_toggle_lock_wait_seconds",
			Help:    "Time spent waiting for the per-entry toggle lock",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	// Outbox 发布计数
	OutboxPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_total",
			Help: "Outbox events handed to the broker",
		},
		[]string{"routing_key", "status"}, // status: sent, failed
	)

	// 活动日志写入计数
	ActivityRecordedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_recorded_total",
			Help: "Activity log rows written by the worker",
		},
		[]string{"kind", "status"}, // status: recorded, duplicate, failed
	)
)

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录慢查询
func IncrementSlowQuery(statement string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(statement).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementAuthRejection 记录认证失败
func IncrementAuthRejection(reason string) {
	AuthRejections.WithLabelValues(reason).Inc()
}

// IncrementHabitToggle 记录一次打卡切换
func IncrementHabitToggle(action, result string) {
	HabitToggleCount.WithLabelValues(action, result).Inc()
}

// ObserveToggleLockWait 记录锁等待时间
func ObserveToggleLockWait(duration time.Duration) {
	ToggleLockWait.Observe(duration.Seconds())
}

// IncrementOutboxPublish 记录 outbox 发布结果
func IncrementOutboxPublish(routingKey, status string) {
	OutboxPublishCount.WithLabelValues(routingKey, status).Inc()
}

// IncrementActivityRecorded 记录活动日志写入结果
func IncrementActivityRecorded(kind, status string) {
	ActivityRecordedCount.WithLabelValues(kind, status).Inc()
}
