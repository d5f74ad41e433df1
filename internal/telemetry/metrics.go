// Package telemetry 注册 Prometheus 指标，/metrics 由 gin 路由直接暴露。
//
// HTTP 指标的 path 标签使用 c.FullPath() 路由模板而不是原始 URL，
// 避免 club id、room id 之类的路径参数把标签基数撑爆。
package telemetry

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// 业务指标
var (
	// MembershipChangesTotal 标签 kind=community|club, action=join|leave
	MembershipChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_changes_total",
			Help: "Total number of effective membership changes, by kind and action.",
		},
		[]string{"kind", "action"},
	)

	ContentFlaggedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_flagged_total",
			Help: "Total number of content items flagged by keyword screening, by content type.",
		},
		[]string{"content_type"},
	)

	ModerationReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_reviews_total",
			Help: "Total number of moderation decisions, by action.",
		},
		[]string{"action"},
	)

	// OutboxEventsTotal 标签 result=sent|failed
	OutboxEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_events_total",
			Help: "Total number of outbox events relayed to Kafka, by result.",
		},
		[]string{"result"},
	)

	MemberCountDriftTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "member_count_drift_fixed_total",
			Help: "Total number of member_count corrections made by the reconciler, by kind.",
		},
		[]string{"kind"},
	)

	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_subscribers",
			Help: "Current number of in-process realtime subscriptions (SSE streams).",
		},
	)

	DBOpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Current number of open database connections in the pool.",
		},
	)
)

// StartDBStatsCollector 每 30s 采样一次连接池，数据库不可达时退出
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				zap.L().Warn("db stats collector stopped", zap.Error(err))
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
