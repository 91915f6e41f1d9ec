package router

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// eventFeedPrefix matches the keystroke and compile ingestion endpoints,
// which fire on every keypress and would drown the log at Info.
const eventFeedPrefix = "/api/events/"

// RequestLogger logs each request through zap. Successful event-feed hits
// stay at Debug so a typing burst does not flood the file; everything else
// lands at Info, with 4xx/5xx promoted to Warn/Error.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= 500:
			log.Error("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		case strings.HasPrefix(c.FullPath(), eventFeedPrefix):
			log.Debug("Event ingested", fields...)
		default:
			log.Info("Request processed", fields...)
		}
	}
}
