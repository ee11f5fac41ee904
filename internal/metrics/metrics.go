// Package metrics 提供 catalog 抓取与 HTTP 前端的 Prometheus 指标。
//
// 指标注册到调用方传入的 Registerer（不使用全局默认注册表），便于测试隔离：
//
//	mvbrowse_catalog_requests_total{outcome}          counter
//	mvbrowse_catalog_request_duration_seconds{outcome} histogram
//	mvbrowse_catalog_batch_size                       histogram
//	mvbrowse_http_requests_total{route,status}        counter
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 抓取结果分类（与 catalog 的错误类型一一对应）。
const (
	OutcomeOK       = "ok"
	OutcomeNetwork  = "network"
	OutcomeDecode   = "decode"
	OutcomeTimeout  = "timeout"
	// OutcomeCanceled：同批次其他请求失败后被取消，或调用方取消。
	OutcomeCanceled = "canceled"
)

// Collectors 聚合全部指标。nil *Collectors 是合法的“关闭指标”状态。
type Collectors struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	batchSize    prometheus.Histogram
	httpRequests *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)
	return &Collectors{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mvbrowse_catalog_requests_total",
			Help: "Catalog GET requests by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mvbrowse_catalog_request_duration_seconds",
			Help:    "Catalog GET latency by outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		batchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mvbrowse_catalog_batch_size",
			Help:    "Number of URLs per fan-out batch.",
			Buckets: []float64{1, 2, 4, 8, 16, 32},
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mvbrowse_http_requests_total",
			Help: "HTTP front requests by route and status.",
		}, []string{"route", "status"}),
	}
}

// NewRegistry 返回带 Go runtime / process 指标的独立注册表。
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (c *Collectors) ObserveRequest(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (c *Collectors) ObserveBatch(n int) {
	if c == nil {
		return
	}
	c.batchSize.Observe(float64(n))
}

func (c *Collectors) ObserveHTTP(route string, status int) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler 暴露 GET /metrics。
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
