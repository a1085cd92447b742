package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kioskgate_http_requests_total",
		Help: "HTTP requests handled, by route and status.",
	}, []string{"path", "status"})

	scanOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kioskgate_scans_total",
		Help: "Scan landing outcomes.",
	}, []string{"outcome"})
)

// RequestMetrics 按路由与状态码统计处理过的请求。
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// PrometheusHandler 暴露 /metrics 抓取端点。
func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
