package leaderboard

import (
	"net/http"

	"socialstakes/models"
	"socialstakes/server/common"

	"github.com/gin-gonic/gin"
)

type globalResponse struct {
	Entries []*models.LeaderboardEntry `json:"entries"`
}

func (f *Feature) handleGlobal(c *gin.Context) {
	entries, err := f.leaderboardService.GetGlobal(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, globalResponse{Entries: entries})
}

func (f *Feature) handleRanking(c *gin.Context) {
	entry, err := f.leaderboardService.GetRanking(c.Request.Context(), common.UserID(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
