package leaderboard

import (
	"socialstakes/service"

	"github.com/gin-gonic/gin"
)

type Feature struct {
	leaderboardService service.LeaderboardService
}

func New(leaderboardService service.LeaderboardService) *Feature {
	return &Feature{
		leaderboardService: leaderboardService,
	}
}

func (f *Feature) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/leaderboard/global", f.handleGlobal)
	protected.GET("/leaderboard/ranking", f.handleRanking)
}
