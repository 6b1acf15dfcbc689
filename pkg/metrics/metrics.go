// Package metrics 提供基于Prometheus的指标收集
//
// 指标通过/metrics端点暴露，由Prometheus Server定期抓取
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册panic）
	initialized bool

	// HTTP请求指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（秒）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 给药履约指标

	// FulfillmentsTotal 履约执行总数
	// 标签：result（success/insufficient_stock/state_conflict/not_found/error）
	FulfillmentsTotal *prometheus.CounterVec

	// FulfillmentDuration 单次履约事务耗时（秒）
	// 包含行锁等待时间，是锁竞争的直接观测口径
	FulfillmentDuration prometheus.Histogram

	// StockLevel 药品当前库存水平
	// 标签：drug（药品名称）
	StockLevel *prometheus.GaugeVec

	// TransfersTotal 科室间库存转移总数
	// 标签：result（success/failure）
	TransfersTotal *prometheus.CounterVec

	// 缓存指标

	// CacheRequestsTotal 缓存访问总数
	// 标签：view（mar_dashboard/formulary/inventory_status）、outcome（hit/miss/error）
	CacheRequestsTotal *prometheus.CounterVec

	// CacheInvalidationsTotal 缓存失效总数
	CacheInvalidationsTotal prometheus.Counter

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// 消息队列指标

	// MessagesPublishedTotal 事件发布总数
	// 标签：routing_key、result（success/failure）
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有Prometheus指标
// 必须在程序启动时调用一次，promauto会注册到默认Registry
func InitMetrics() {
	if initialized {
		return
	}
	initialized = true

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	FulfillmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillments_total",
			Help: "给药履约执行总数",
		},
		[]string{"result"},
	)

	FulfillmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "fulfillment_duration_seconds",
			Help: "单次履约事务耗时（秒），含行锁等待",
			// 正常路径在10ms级，长尾来自锁等待
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	StockLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drug_stock_level",
			Help: "药品当前库存",
		},
		[]string{"drug"},
	)

	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_transfers_total",
			Help: "科室间库存转移总数",
		},
		[]string{"result"},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "聚合视图缓存访问总数",
		},
		[]string{"view", "outcome"},
	)

	CacheInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "提交后缓存失效总数",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "MQ事件发布总数",
		},
		[]string{"routing_key", "result"},
	)
}

// IncCounter 递增Counter（指标未初始化时为空操作）
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 按标签递增Counter（指标未初始化时为空操作）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// SetGaugeVec 按标签设置Gauge
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogramVec 按标签记录Histogram观测值
func ObserveHistogramVec(vec *prometheus.HistogramVec, labels map[string]string, value float64) {
	if vec == nil {
		return
	}
	vec.With(labels).Observe(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram == nil {
		return
	}
	histogram.Observe(value)
}
