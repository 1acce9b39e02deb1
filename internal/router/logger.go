package router

import (
	"net/http"
	"time"

	"github.com/blues/civicops/internal/handler"
	"github.com/blues/civicops/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger 使用项目日志器记录请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		l := logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
		switch {
		case status >= 500:
			l.Error("%s %s", c.Request.Method, path)
		case status >= 400:
			l.Warn("%s %s", c.Request.Method, path)
		default:
			l.Debug("%s %s", c.Request.Method, path)
		}
	}
}

// recovery 捕获处理过程中的 panic，记录日志后返回通用 500
func recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.With(zap.Any("panic", recovered), zap.Stack("stack")).
			Error("%s %s panicked", c.Request.Method, c.Request.URL.Path)
		handler.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
		c.Abort()
	})
}
