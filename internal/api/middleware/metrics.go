package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"craz-web-meta/pkg/metrics"
)

// Metrics 记录请求数与耗时；route 取路由模板，未匹配的路径归为 "unmatched"
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
