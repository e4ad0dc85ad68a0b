package feed

import (
	"net/http"

	"socialstakes/auth"
	"socialstakes/server/common"
	"socialstakes/server/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (f *Feature) handleFeed(c *gin.Context) {
	tokenStr, ok := middleware.UpgradeToken(c)
	if !ok {
		common.RespondUnauthorized(c, "missing token")
		return
	}
	claims, err := auth.ParseToken(tokenStr, f.jwtSecret)
	if err != nil {
		common.RespondUnauthorized(c, "invalid or expired token")
		return
	}
	c.Set(common.UserIDKey, claims.UserID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.WithError(err).WithField("userId", claims.UserID).Warn("WebSocket upgrade failed")
		return
	}

	cl := &client{
		hub:    f.hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: claims.UserID,
	}
	if !f.hub.register(cl) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	log.WithField("userId", claims.UserID).Debug("Feed client connected")
	go cl.writePump()
	go cl.readPump()
}
