// Package metrics 提供 Prometheus 指标.
// 指标注册在独立的 Registry 上，由 /metrics 路由导出.
//
// Example:
//
//	if err := metrics.InitMetrics(config.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.ObserveUpload("video", "ok")
package metrics

import (
	"net/http/pprof"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/moments/pkg/configs"
)

var (
	// RequestCounter HTTP 请求计数.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration HTTP 请求耗时.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ActiveRequests 正在处理的请求数.
	ActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	// MediaUploads 上传结果计数，kind 为附件类型.
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Uploads relayed to the provider, by attachment kind and result",
		},
		[]string{"kind", "result"},
	)

	// MediaFetches 读取结果计数，variant 为 primary 或 thumbnail.
	MediaFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_fetches_total",
			Help: "Media fetches, by variant and result",
		},
		[]string{"variant", "result"},
	)

	// ResolveAttempts 每次读取解析下载路径所用的尝试次数.
	ResolveAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_resolve_attempts",
			Help:    "getFile attempts needed to resolve a download path",
			Buckets: []float64{1, 2, 3},
		},
	)

	// ProviderDuration 上游 Bot API 请求耗时.
	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Telegram Bot API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "outcome"},
	)

	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 注册指标，重复调用只生效一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		reg := prometheus.WrapRegistererWithPrefix(prefix(config.Namespace), prometheus.WrapRegistererWith(config.Labels, registry))

		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration, ActiveRequests,
			MediaUploads, MediaFetches, ResolveAttempts, ProviderDuration,
		} {
			if e := reg.Register(c); e != nil {
				err = e
				return
			}
		}
	})

	return err
}

func prefix(namespace string) string {
	if namespace == "" {
		return ""
	}

	return namespace + "_"
}

// Mount 在 engine 上挂载 /metrics，按配置挂载 /debug/pprof.
// 运行时指标与 GORM 插件指标位于默认注册表，启用 RuntimeMetrics 时一并导出.
func Mount(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	var gatherer prometheus.Gatherer = registry
	if config.RuntimeMetrics {
		gatherer = prometheus.Gatherers{registry, prometheus.DefaultGatherer}
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{Registry: registry})))

	if config.Pprof {
		pp := engine.Group("/debug/pprof")
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
		pp.GET("/:name", func(c *gin.Context) {
			pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
		})
	}
}

// GetRegistry 获取 Prometheus 注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// ObserveUpload 记录一次上传.
func ObserveUpload(kind, result string) {
	MediaUploads.WithLabelValues(kind, result).Inc()
}

// ObserveFetch 记录一次读取.
func ObserveFetch(variant, result string) {
	MediaFetches.WithLabelValues(variant, result).Inc()
}

// ObserveResolveAttempts 记录解析下载路径的尝试次数.
func ObserveResolveAttempts(n int) {
	ResolveAttempts.Observe(float64(n))
}

// ObserveProviderRequest 记录一次上游请求.
func ObserveProviderRequest(method, outcome string, d time.Duration) {
	ProviderDuration.WithLabelValues(method, outcome).Observe(d.Seconds())
}

// ObserveHTTP 记录一次 HTTP 请求.
func ObserveHTTP(method, route, status string, d time.Duration) {
	RequestCounter.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
