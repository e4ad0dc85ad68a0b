package users

import (
	"net/http"

	"socialstakes/models"
	"socialstakes/server/common"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 50

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type historyResponse struct {
	History []*models.BalanceHistory `json:"history"`
}

type categoriesResponse struct {
	Categories []*models.CategoryStats `json:"categories"`
}

func (f *Feature) handleRegister(c *gin.Context) {
	var req registerRequest
	if !common.BindJSON(c, &req) {
		return
	}

	user, err := f.userService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"userId":   user.ID,
		"username": user.Username,
	}).Info("User registered")

	c.JSON(http.StatusCreated, user)
}

func (f *Feature) handleMe(c *gin.Context) {
	user, err := f.userService.GetUser(c.Request.Context(), common.UserID(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (f *Feature) handleHistory(c *gin.Context) {
	limit := common.QueryInt(c, "limit", defaultHistoryLimit)

	history, err := f.userService.GetBalanceHistory(c.Request.Context(), common.UserID(c), limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if history == nil {
		history = []*models.BalanceHistory{}
	}
	c.JSON(http.StatusOK, historyResponse{History: history})
}

func (f *Feature) handleCategories(c *gin.Context) {
	stats, err := f.userService.GetCategoryStats(c.Request.Context(), common.UserID(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if stats == nil {
		stats = []*models.CategoryStats{}
	}
	c.JSON(http.StatusOK, categoriesResponse{Categories: stats})
}
