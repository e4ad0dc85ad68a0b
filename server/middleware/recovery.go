package middleware

import (
	"runtime/debug"

	"socialstakes/server/common"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Recovery turns a handler panic into the opaque 500 response
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"requestId": common.RequestID(c),
					"method":    c.Request.Method,
					"path":      c.Request.URL.Path,
					"panic":     r,
					"stack":     string(debug.Stack()),
				}).Error("Handler panicked")
				common.RespondInternal(c)
			}
		}()
		c.Next()
	}
}
