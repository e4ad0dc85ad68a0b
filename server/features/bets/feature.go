package bets

import (
	"socialstakes/service"

	"github.com/gin-gonic/gin"
)

type Feature struct {
	betService service.BetService
}

func New(betService service.BetService) *Feature {
	return &Feature{
		betService: betService,
	}
}

// RegisterRoutes mounts bet reads on the public group and every mutation on
// the authenticated group
func (f *Feature) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/bets/public", f.handleListPublic)
	public.GET("/bets/:id", f.handleGet)

	protected.POST("/bets", f.handleCreate)
	protected.GET("/bets/my-bets", f.handleListMine)
	protected.GET("/bets/invites", f.handleListInvites)
	protected.POST("/bets/:id/join", f.handleJoin)
	protected.POST("/bets/:id/invite", f.handleInvite)
	protected.POST("/bets/:id/respond", f.handleRespond)
	protected.POST("/bets/:id/activate", f.handleActivate)
	protected.POST("/bets/:id/resolve", f.handleResolve)
	protected.POST("/bets/:id/cancel", f.handleCancel)
}
