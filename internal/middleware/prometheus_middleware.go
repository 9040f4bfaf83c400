package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMiddleware снимает HTTP-метрики REST сервера под общим
// неймспейсом airtrap:
//
//	airtrap_<subsystem>_http_request_duration_seconds{method,path,status}
//	airtrap_<subsystem>_http_requests_inflight
//	airtrap_<subsystem>_http_request_errors_total{method,path,status}
//
// Сам маршрут /metrics добавляется через RegisterMetricsEndpoint и
// отдаёт дефолтный регистр целиком — туда же попадают метрики
// симуляции, сети и шины событий.
type PrometheusMiddleware struct {
	reqDuration *prometheus.HistogramVec
	reqInflight prometheus.Gauge
	reqErrors   *prometheus.CounterVec
}

// NewPrometheusMiddleware регистрирует метрики подсистемы в дефолтном регистре.
func NewPrometheusMiddleware(subsystem string) *PrometheusMiddleware {
	pm := &PrometheusMiddleware{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "airtrap",
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "path", "status"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "airtrap",
			Subsystem: subsystem,
			Name:      "http_requests_inflight",
			Help:      "Запросы в обработке прямо сейчас.",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airtrap",
			Subsystem: subsystem,
			Name:      "http_request_errors_total",
			Help:      "Запросы, завершившиеся статусом 4xx/5xx.",
		}, []string{"method", "path", "status"}),
	}
	prometheus.MustRegister(pm.reqDuration, pm.reqInflight, pm.reqErrors)
	return pm
}

// Handler — gin-обёртка; подключается через router.Use().
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.reqInflight.Inc()
		c.Next()
		pm.reqInflight.Dec()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			// запрос не сматчился ни с одним маршрутом
			path = c.Request.URL.Path
		}

		pm.reqDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			pm.reqErrors.WithLabelValues(c.Request.Method, path, status).Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics.
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
