package bets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"socialstakes/models"
	"socialstakes/service"
)

type optionRequest struct {
	Text string  `json:"text" validate:"required,max=200"`
	Odds float64 `json:"odds" validate:"gte=0"`
}

type createBetRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Category    string          `json:"category" validate:"omitempty,oneof=sports esports politics entertainment custom"`
	Visibility  string          `json:"visibility" validate:"omitempty,oneof=public friends private"`
	Options     []optionRequest `json:"options" validate:"required,min=2,dive"`
	ExpiresAt   *time.Time      `json:"expiresAt"`
}

func (r createBetRequest) params(creatorID int64) service.CreateBetParams {
	options := make([]service.OptionParams, len(r.Options))
	for i, opt := range r.Options {
		options[i] = service.OptionParams{Text: opt.Text, Odds: opt.Odds}
	}
	return service.CreateBetParams{
		CreatorID:   creatorID,
		Title:       r.Title,
		Description: r.Description,
		Category:    models.BetCategory(r.Category),
		Visibility:  models.BetVisibility(r.Visibility),
		Options:     options,
		ExpiresAt:   r.ExpiresAt,
	}
}

// optionRef names a bet option by its text or its index. Both "Yes" and 1
// decode, the index as its decimal string.
type optionRef string

func (r *optionRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*r = optionRef(text)
		return nil
	}

	index, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("option must be text or an integer index, got %s", data)
	}
	*r = optionRef(strconv.Itoa(index))
	return nil
}

type joinBetRequest struct {
	Choice optionRef `json:"choice" validate:"required"`
	Amount int64     `json:"amount" validate:"gt=0"`
}

type resolveBetRequest struct {
	Outcome optionRef `json:"outcome" validate:"required"`
}

type inviteRequest struct {
	UserIDs []int64   `json:"userIds" validate:"required,min=1,max=50,dive,gt=0"`
	Option  optionRef `json:"option"`
}

// Choice may be omitted on accept to take the option suggested in the
// invitation.
type respondRequest struct {
	Accept *bool     `json:"accept" validate:"required"`
	Choice optionRef `json:"choice"`
	Amount int64     `json:"amount" validate:"gte=0"`
}

type invitedResponse struct {
	Invited []*models.BetParticipant `json:"invited"`
}

type listResponse struct {
	Bets []*models.Bet `json:"bets"`
}
