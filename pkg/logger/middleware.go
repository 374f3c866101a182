package logger

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware attaches a request-scoped logger to the gin context and logs
// each completed request. Websocket upgrades are skipped so a long-lived
// connection does not produce a misleading "request completed" line.
func Middleware(l *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqLogger := l.WithRequestID(c.GetString("requestID"))
		c.Set("logger", reqLogger)

		c.Next()

		if c.IsWebsocket() {
			return
		}
		reqLogger.LogRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
