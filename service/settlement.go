package service

import (
	"fmt"
	"sort"

	"socialstakes/models"
)

// BalanceDelta is a credit owed to one participant by a settlement
type BalanceDelta struct {
	UserID        int64
	ParticipantID int64
	Amount        int64
	Type          models.TransactionType
}

// Settlement is the pure result of settling a bet. Applying it is the
// caller's job and must happen in one transaction.
type Settlement struct {
	OutcomeIndex int
	TotalPool    int64
	Winners      []*models.BetParticipant
	Losers       []*models.BetParticipant
	// Refunded is set when no accepted stake matched the outcome, or the
	// bet was cancelled. Every stake is returned and no stats change.
	Refunded bool
	Credits  []BalanceDelta
	Stats    []models.StatDelta
}

// TotalCredited sums every credit in the settlement
func (s *Settlement) TotalCredited() int64 {
	var total int64
	for _, c := range s.Credits {
		total += c.Amount
	}
	return total
}

// CreditFor returns the amount credited to userID
func (s *Settlement) CreditFor(userID int64) int64 {
	var total int64
	for _, c := range s.Credits {
		if c.UserID == userID {
			total += c.Amount
		}
	}
	return total
}

// ComputeSettlement splits the pool of detail among accepted participants
// who chose outcomeIndex. Each winner gets pool/len(winners); the remainder
// goes to the earliest winner by join order so credits sum to the pool
// exactly. With no winners every stake is refunded.
func ComputeSettlement(detail *models.BetDetail, outcomeIndex int) (*Settlement, error) {
	if detail == nil || detail.Bet == nil {
		return nil, fmt.Errorf("bet detail is required: %w", models.ErrNotFound)
	}
	if detail.OptionByIndex(outcomeIndex) == nil {
		return nil, fmt.Errorf("option %d does not exist on bet %d: %w", outcomeIndex, detail.Bet.ID, models.ErrInvalidOutcome)
	}

	accepted := detail.AcceptedParticipants()
	if err := checkPool(detail, accepted); err != nil {
		return nil, err
	}

	settlement := &Settlement{
		OutcomeIndex: outcomeIndex,
		TotalPool:    detail.Bet.TotalPool,
	}
	for _, p := range accepted {
		if p.OptionIndex == outcomeIndex {
			settlement.Winners = append(settlement.Winners, p)
		} else {
			settlement.Losers = append(settlement.Losers, p)
		}
	}

	if len(settlement.Winners) == 0 {
		settlement.Losers = nil
		settlement.Refunded = true
		settlement.Credits = refundCredits(accepted)
		return settlement, nil
	}

	count := int64(len(settlement.Winners))
	share := settlement.TotalPool / count
	remainder := settlement.TotalPool % count

	for i, w := range settlement.Winners {
		amount := share
		if i == 0 {
			amount += remainder
		}
		settlement.Credits = append(settlement.Credits, BalanceDelta{
			UserID:        w.UserID,
			ParticipantID: w.ID,
			Amount:        amount,
			Type:          models.TransactionTypeBetPayout,
		})
		settlement.Stats = append(settlement.Stats, models.StatDelta{UserID: w.UserID, TotalBets: 1, Wins: 1})
	}
	for _, l := range settlement.Losers {
		settlement.Stats = append(settlement.Stats, models.StatDelta{UserID: l.UserID, TotalBets: 1, Losses: 1})
	}

	return settlement, nil
}

// ComputeRefund returns every accepted stake to its owner
func ComputeRefund(detail *models.BetDetail) (*Settlement, error) {
	if detail == nil || detail.Bet == nil {
		return nil, fmt.Errorf("bet detail is required: %w", models.ErrNotFound)
	}
	accepted := detail.AcceptedParticipants()
	if err := checkPool(detail, accepted); err != nil {
		return nil, err
	}
	return &Settlement{
		OutcomeIndex: -1,
		TotalPool:    detail.Bet.TotalPool,
		Refunded:     true,
		Credits:      refundCredits(accepted),
	}, nil
}

func refundCredits(accepted []*models.BetParticipant) []BalanceDelta {
	credits := make([]BalanceDelta, 0, len(accepted))
	for _, p := range accepted {
		credits = append(credits, BalanceDelta{
			UserID:        p.UserID,
			ParticipantID: p.ID,
			Amount:        p.Amount,
			Type:          models.TransactionTypeBetRefund,
		})
	}
	return credits
}

func checkPool(detail *models.BetDetail, accepted []*models.BetParticipant) error {
	var sum int64
	for _, p := range accepted {
		sum += p.Amount
	}
	if sum != detail.Bet.TotalPool {
		return fmt.Errorf("bet %d pool %d does not match accepted stakes %d", detail.Bet.ID, detail.Bet.TotalPool, sum)
	}
	return nil
}

// creditsByUserID orders credits by user so concurrent settlements lock
// user rows in the same order.
func creditsByUserID(credits []BalanceDelta) []BalanceDelta {
	ordered := make([]BalanceDelta, len(credits))
	copy(ordered, credits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UserID < ordered[j].UserID
	})
	return ordered
}
