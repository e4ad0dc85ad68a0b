package middleware

import (
	"strings"

	"socialstakes/auth"
	"socialstakes/server/common"

	"github.com/gin-gonic/gin"
)

// Auth requires a valid bearer token and stores the user id on the context
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := BearerToken(c)
		if !ok {
			common.RespondUnauthorized(c, "missing or invalid Authorization header")
			return
		}

		claims, err := auth.ParseToken(tokenStr, secret)
		if err != nil {
			common.RespondUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(common.UserIDKey, claims.UserID)
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// UpgradeToken is BearerToken plus the token query parameter. Browsers
// cannot set headers on a websocket handshake, so only upgrade endpoints
// may use it.
func UpgradeToken(c *gin.Context) (string, bool) {
	if c.GetHeader("Authorization") != "" {
		return BearerToken(c)
	}
	token := c.Query("token")
	return token, token != ""
}
