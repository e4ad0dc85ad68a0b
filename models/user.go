package models

import (
	"time"
)

// User represents a registered player with a wager balance
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Balance      int64     `db:"balance" json:"balance"`
	Stats        UserStats `db:"-" json:"stats"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// UserStats holds the win/loss record that settlement maintains
type UserStats struct {
	TotalBets int     `db:"total_bets" json:"totalBets"`
	Wins      int     `db:"wins" json:"wins"`
	Losses    int     `db:"losses" json:"losses"`
	WinRate   float64 `db:"win_rate" json:"winRate"` // fraction in [0,1]
}

// WinRateFor returns wins / (wins + losses), or 0 when no bets were settled.
func WinRateFor(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}
