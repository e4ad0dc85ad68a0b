package bets

import (
	"net/http"

	"socialstakes/models"
	"socialstakes/server/common"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleCreate(c *gin.Context) {
	var req createBetRequest
	if !common.BindJSON(c, &req) {
		return
	}

	detail, err := f.betService.CreateBet(c.Request.Context(), req.params(common.UserID(c)))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"betId":     detail.Bet.ID,
		"creatorId": detail.Bet.CreatorID,
		"options":   len(detail.Options),
	}).Info("Bet created")

	c.JSON(http.StatusCreated, detail)
}

func (f *Feature) handleListPublic(c *gin.Context) {
	limit := common.QueryInt(c, "limit", 0)
	offset := common.QueryInt(c, "offset", 0)

	bets, err := f.betService.ListPublicBets(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Bets: nonNil(bets)})
}

func (f *Feature) handleListMine(c *gin.Context) {
	limit := common.QueryInt(c, "limit", 0)

	bets, err := f.betService.ListUserBets(c.Request.Context(), common.UserID(c), limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Bets: nonNil(bets)})
}

func (f *Feature) handleGet(c *gin.Context) {
	betID, ok := common.ParseIDParam(c, "id")
	if !ok {
		common.RespondBadRequest(c, "invalid bet id")
		return
	}

	detail, err := f.betService.GetBet(c.Request.Context(), betID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (f *Feature) handleJoin(c *gin.Context) {
	betID, ok := common.ParseIDParam(c, "id")
	if !ok {
		common.RespondBadRequest(c, "invalid bet id")
		return
	}

	var req joinBetRequest
	if !common.BindJSON(c, &req) {
		return
	}

	participant, err := f.betService.JoinBet(c.Request.Context(), betID, common.UserID(c), string(req.Choice), req.Amount)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"betId":       betID,
		"userId":      participant.UserID,
		"optionIndex": participant.OptionIndex,
		"amount":      participant.Amount,
	}).Info("Bet joined")

	c.JSON(http.StatusCreated, participant)
}

func (f *Feature) handleInvite(c *gin.Context) {
	betID, ok := common.ParseIDParam(c, "id")
	if !ok {
		common.RespondBadRequest(c, "invalid bet id")
		return
	}

	var req inviteRequest
	if !common.BindJSON(c, &req) {
		return
	}

	invited, err := f.betService.InviteParticipants(c.Request.Context(), betID, common.UserID(c), req.UserIDs, string(req.Option))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"betId":   betID,
		"invited": len(invited),
	}).Info("Bet invitations sent")

	c.JSON(http.StatusCreated, invitedResponse{Invited: invited})
}

func (f *Feature) handleRespond(c *gin.Context) {
	betID, ok := common.ParseIDParam(c, "id")
	if !ok {
		common.RespondBadRequest(c, "invalid bet id")
		return
	}

	var req respondRequest
	if !common.BindJSON(c, &req) {
		return
	}

	participant, err := f.betService.RespondToInvite(c.Request.Context(), betID, common.UserID(c), *req.Accept, string(req.Choice), req.Amount)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"betId":  betID,
		"userId": participant.UserID,
		"status": participant.Status,
		"amount": participant.Amount,
	}).Info("Bet invitation answered")

	c.JSON(http.StatusOK, participant)
}

func (f *Feature) handleListInvites(c *gin.Context) {
	limit := common.QueryInt(c, "limit", 0)

	bets, err := f.betService.ListInvites(c.Request.Context(), common.UserID(c), limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Bets: nonNil(bets)})
}

func (f *Feature) handleActivate(c *gin.Context) {
	betID, ok := common.ParseIDParam(c, "id")
	if !ok {
		common.RespondBadRequest(c, "invalid bet id")
		return
	}

	bet, err := f.betService.ActivateBet(c.Request.Context(), betID, common.UserID(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bet)
}

func (f *Feature) handleResolve(c *gin.Context) {
	betID, ok := common.ParseIDParam(c, "id")
	if !ok {
		common.RespondBadRequest(c, "invalid bet id")
		return
	}

	var req resolveBetRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := f.betService.ResolveBet(c.Request.Context(), betID, common.UserID(c), string(req.Outcome))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"betId":     betID,
		"winners":   len(result.Winners),
		"losers":    len(result.Losers),
		"refunded":  result.Refunded,
		"totalPool": result.TotalPool,
	}).Info("Bet resolved")

	c.JSON(http.StatusOK, result)
}

func (f *Feature) handleCancel(c *gin.Context) {
	betID, ok := common.ParseIDParam(c, "id")
	if !ok {
		common.RespondBadRequest(c, "invalid bet id")
		return
	}

	result, err := f.betService.CancelBet(c.Request.Context(), betID, common.UserID(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"betId":     betID,
		"refunds":   len(result.PayoutDetails),
		"totalPool": result.TotalPool,
	}).Info("Bet cancelled")

	c.JSON(http.StatusOK, result)
}

func nonNil(bets []*models.Bet) []*models.Bet {
	if bets == nil {
		return []*models.Bet{}
	}
	return bets
}
