package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// BetStatus represents the lifecycle state of a bet
type BetStatus string

const (
	BetStatusOpen      BetStatus = "open"
	BetStatusActive    BetStatus = "active"
	BetStatusResolved  BetStatus = "resolved"
	BetStatusCancelled BetStatus = "cancelled"
)

// BetVisibility controls where a bet is listed
type BetVisibility string

const (
	BetVisibilityPublic  BetVisibility = "public"
	BetVisibilityFriends BetVisibility = "friends"
	BetVisibilityPrivate BetVisibility = "private"
)

// BetCategory groups bets by subject
type BetCategory string

const (
	BetCategorySports        BetCategory = "sports"
	BetCategoryEsports       BetCategory = "esports"
	BetCategoryPolitics      BetCategory = "politics"
	BetCategoryEntertainment BetCategory = "entertainment"
	BetCategoryCustom        BetCategory = "custom"
)

// ParticipantStatus is the state of a single stake on a bet
type ParticipantStatus string

const (
	// Pending and declined rows are invitations and hold no stake.
	ParticipantStatusPending  ParticipantStatus = "pending"
	ParticipantStatusAccepted ParticipantStatus = "accepted"
	ParticipantStatusDeclined ParticipantStatus = "declined"
	// Refunded stakes no longer count toward the pool.
	ParticipantStatusRefunded ParticipantStatus = "refunded"
)

// Bet represents a wager with several options that users stake on
type Bet struct {
	ID           int64         `db:"id" json:"id"`
	CreatorID    int64         `db:"creator_id" json:"creatorId"`
	Title        string        `db:"title" json:"title"`
	Description  string        `db:"description" json:"description"`
	Category     BetCategory   `db:"category" json:"category"`
	Visibility   BetVisibility `db:"visibility" json:"visibility"`
	Status       BetStatus     `db:"status" json:"status"`
	TotalPool    int64         `db:"total_pool" json:"totalPool"`
	OutcomeIndex *int          `db:"outcome_index" json:"outcomeIndex,omitempty"`
	ExpiresAt    *time.Time    `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
	ResolvedAt   *time.Time    `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// BetOption represents one possible outcome of a bet
type BetOption struct {
	ID          int64   `db:"id" json:"id"`
	BetID       int64   `db:"bet_id" json:"betId"`
	OptionIndex int     `db:"option_index" json:"index"`
	Text        string  `db:"option_text" json:"text"`
	Odds        float64 `db:"odds" json:"odds"`
}

// BetParticipant represents a user's stake on a bet
type BetParticipant struct {
	ID               int64             `db:"id" json:"id"`
	BetID            int64             `db:"bet_id" json:"betId"`
	UserID           int64             `db:"user_id" json:"userId"`
	OptionIndex      int               `db:"option_index" json:"optionIndex"`
	Amount           int64             `db:"amount" json:"amount"`
	Status           ParticipantStatus `db:"status" json:"status"`
	PayoutAmount     *int64            `db:"payout_amount" json:"payoutAmount,omitempty"`
	BalanceHistoryID *int64            `db:"balance_history_id" json:"-"`
	InvitedBy        *int64            `db:"invited_by" json:"invitedBy,omitempty"`
	InvitedOption    *int              `db:"invited_option" json:"invitedOption,omitempty"`
	JoinedAt         time.Time         `db:"joined_at" json:"joinedAt"`
}

// HasStake reports whether the row carries money in the pool or did so
// before a refund
func (p *BetParticipant) HasStake() bool {
	return p.Status == ParticipantStatusAccepted || p.Status == ParticipantStatusRefunded
}

// IsInvitation reports whether the row is an unstaked invitation
func (p *BetParticipant) IsInvitation() bool {
	return p.Status == ParticipantStatusPending || p.Status == ParticipantStatusDeclined
}

// BetDetail combines a bet with its options and participants
type BetDetail struct {
	Bet          *Bet              `json:"bet"`
	Options      []*BetOption      `json:"options"`
	Participants []*BetParticipant `json:"participants"`
}

// BetResult represents the outcome of a settlement or cancellation
type BetResult struct {
	Bet           *Bet              `json:"bet"`
	WinningOption *BetOption        `json:"winningOption,omitempty"`
	Winners       []*BetParticipant `json:"winners"`
	Losers        []*BetParticipant `json:"losers"`
	Refunded      bool              `json:"refunded"`
	TotalPool     int64             `json:"totalPool"`
	PayoutDetails map[int64]int64   `json:"payouts"` // user ID -> amount credited
}

// IsValid reports whether c is a known category
func (c BetCategory) IsValid() bool {
	switch c {
	case BetCategorySports, BetCategoryEsports, BetCategoryPolitics, BetCategoryEntertainment, BetCategoryCustom:
		return true
	}
	return false
}

// IsValid reports whether v is a known visibility
func (v BetVisibility) IsValid() bool {
	switch v {
	case BetVisibilityPublic, BetVisibilityFriends, BetVisibilityPrivate:
		return true
	}
	return false
}

// IsOpen checks if the bet is in the open state
func (b *Bet) IsOpen() bool {
	return b.Status == BetStatusOpen
}

// IsSettleable checks if the bet can still be resolved or cancelled
func (b *Bet) IsSettleable() bool {
	return b.Status == BetStatusOpen || b.Status == BetStatusActive
}

// IsExpired reports whether the join window closed before now
func (b *Bet) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

// CanAcceptJoins checks if new stakes may be placed at the given time
func (b *Bet) CanAcceptJoins(now time.Time) bool {
	return b.IsOpen() && !b.IsExpired(now)
}

// IsCreator reports whether userID created the bet
func (b *Bet) IsCreator(userID int64) bool {
	return b.CreatorID == userID
}

// FindOption resolves a choice to an option. The choice matches option text
// (case-insensitive, surrounding space ignored) first, then a numeric index.
func (d *BetDetail) FindOption(choice string) *BetOption {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return nil
	}
	for _, opt := range d.Options {
		if strings.EqualFold(opt.Text, choice) {
			return opt
		}
	}
	if idx, err := strconv.Atoi(choice); err == nil {
		return d.OptionByIndex(idx)
	}
	return nil
}

// OptionByIndex returns the option at the given index, or nil
func (d *BetDetail) OptionByIndex(index int) *BetOption {
	for _, opt := range d.Options {
		if opt.OptionIndex == index {
			return opt
		}
	}
	return nil
}

// Participant returns the participation record for userID, or nil. The
// record may be an invitation.
func (d *BetDetail) Participant(userID int64) *BetParticipant {
	for _, p := range d.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// AcceptedParticipants returns accepted stakes ordered by join time. An
// accepted invitation joins when it is accepted, not when it was sent.
func (d *BetDetail) AcceptedParticipants() []*BetParticipant {
	accepted := make([]*BetParticipant, 0, len(d.Participants))
	for _, p := range d.Participants {
		if p.Status == ParticipantStatusAccepted {
			accepted = append(accepted, p)
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		if !accepted[i].JoinedAt.Equal(accepted[j].JoinedAt) {
			return accepted[i].JoinedAt.Before(accepted[j].JoinedAt)
		}
		return accepted[i].ID < accepted[j].ID
	})
	return accepted
}

// AcceptedTotal sums the accepted stakes
func (d *BetDetail) AcceptedTotal() int64 {
	var total int64
	for _, p := range d.Participants {
		if p.Status == ParticipantStatusAccepted {
			total += p.Amount
		}
	}
	return total
}

// OutcomeText returns the text of the winning option once resolved
func (d *BetDetail) OutcomeText() string {
	if d.Bet == nil || d.Bet.OutcomeIndex == nil {
		return ""
	}
	if opt := d.OptionByIndex(*d.Bet.OutcomeIndex); opt != nil {
		return opt.Text
	}
	return ""
}
