package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标集合
// 每个实例持有独立的 Registry；nil *Metrics 上的所有方法均为空操作
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	inviteOps    *prometheus.CounterVec
	metadataOps  *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webmeta",
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "webmeta",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inviteOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webmeta",
			Name:      "invite_operations_total",
			Help:      "邀请码操作结果计数",
		}, []string{"op", "result"}),
		metadataOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webmeta",
			Name:      "metadata_requests_total",
			Help:      "元数据解析结果计数（source: cache | fetch）",
		}, []string{"source", "result"}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.inviteOps, m.metadataOps)
	return m
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveInvite 记录邀请码操作结果，result 为 "ok" 或错误码
func (m *Metrics) ObserveInvite(op, result string) {
	if m == nil {
		return
	}
	m.inviteOps.WithLabelValues(op, result).Inc()
}

// ObserveMetadata 记录元数据解析来源与结果
func (m *Metrics) ObserveMetadata(source, result string) {
	if m == nil {
		return
	}
	m.metadataOps.WithLabelValues(source, result).Inc()
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
