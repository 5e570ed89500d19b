package middleware

import (
	"time"

	"echo-diary/internal/logger"

	"github.com/gin-gonic/gin"
)

// AccessLog writes one structured line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if u := CurrentUser(c); u != nil {
			args = append(args, "uid", u.ID)
		}
		if c.Writer.Status() >= 500 {
			logger.Error("http.request", args...)
			return
		}
		logger.Info("http.request", args...)
	}
}
