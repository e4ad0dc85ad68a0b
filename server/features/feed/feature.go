package feed

import (
	"github.com/gin-gonic/gin"
)

type Feature struct {
	hub       *Hub
	jwtSecret string
}

func New(hub *Hub, jwtSecret string) *Feature {
	return &Feature{
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes mounts the feed on the public group. The handler checks the
// token itself since browsers cannot set headers on websocket upgrades.
func (f *Feature) RegisterRoutes(public, _ *gin.RouterGroup) {
	public.GET("/feed", f.handleFeed)
}
