package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Context keys set by middleware
const (
	UserIDKey    = "userID"
	RequestIDKey = "requestID"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// UserID returns the authenticated user, or 0 when the route is public
func UserID(c *gin.Context) int64 {
	return c.GetInt64(UserIDKey)
}

// RequestID returns the id assigned by the request id middleware
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// ParseIDParam reads a positive integer path parameter
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// QueryInt reads an integer query parameter, falling back when absent or
// malformed. Range checks are left to the services.
func QueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
