package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applogger "craz-web-meta/pkg/logger"
)

// quietPaths 探活与抓取指标的请求只在 Debug 级别记录
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logger 请求日志中间件（基于 Zap 结构化日志）
// 需挂在 RequestID 之后：带 request_id 的日志器会放入请求 ctx，Service 层日志随之关联到请求
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		reqLogger := logger
		if rid := RequestIDFrom(c); rid != "" {
			reqLogger = logger.With(zap.String("request_id", rid))
		}
		c.Request = c.Request.WithContext(applogger.WithContext(c.Request.Context(), reqLogger))

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("size", c.Writer.Size()),
		}
		if caller := Caller(c); caller != "" {
			fields = append(fields, zap.String("caller", caller))
		}

		// 业务错误以 200 返回，handler 通过 c.Error 留下原始错误
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case statusCode >= 500:
			reqLogger.Error("请求处理失败", fields...)
		case statusCode >= 400:
			reqLogger.Warn("客户端错误", fields...)
		case quietPaths[path]:
			reqLogger.Debug("请求完成", fields...)
		default:
			reqLogger.Info("请求完成", fields...)
		}
	}
}
