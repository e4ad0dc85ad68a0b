package middleware

import (
	"net/http"
	"time"

	"socialstakes/server/common"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestRecorder receives one observation per completed request
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Logger writes one logrus entry per request and feeds the recorder, which
// may be nil. Routes are reported by their pattern to keep label sets small.
func Logger(recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if recorder != nil {
			recorder.RecordHTTPRequest(c.Request.Method, route, status, elapsed)
		}

		entry := log.WithFields(log.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"route":     route,
			"status":    status,
			"latencyMs": elapsed.Milliseconds(),
			"clientIp":  c.ClientIP(),
			"requestId": common.RequestID(c),
		})
		if userID := common.UserID(c); userID != 0 {
			entry = entry.WithField("userId", userID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}
