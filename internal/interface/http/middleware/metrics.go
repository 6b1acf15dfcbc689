package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weihan/medstock/pkg/metrics"
)

// Metrics HTTP指标中间件
// path标签用路由模板（/api/v1/orders/:id/fulfill）而非实际URL，
// 避免路径参数导致标签基数爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if metrics.HTTPRequestsInProgress != nil {
			metrics.HTTPRequestsInProgress.Inc()
		}

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		if metrics.HTTPRequestsInProgress != nil {
			metrics.HTTPRequestsInProgress.Dec()
		}
		metrics.IncCounterVec(metrics.HTTPRequestsTotal, map[string]string{
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(c.Writer.Status()),
		})
		metrics.ObserveHistogramVec(metrics.HTTPRequestDuration, map[string]string{
			"method": c.Request.Method,
			"path":   path,
		}, time.Since(start).Seconds())
	}
}
