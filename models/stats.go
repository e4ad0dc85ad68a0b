package models

// StatDelta is a change to a user's win/loss record produced by settlement
type StatDelta struct {
	UserID    int64
	TotalBets int
	Wins      int
	Losses    int
}

// LeaderboardEntry represents a user's position on the leaderboard
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	UserID    int64   `json:"userId"`
	Username  string  `json:"username"`
	Balance   int64   `json:"balance"`
	TotalBets int     `json:"totalBets"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	WinRate   float64 `json:"winRate"`
}

// CategoryStats aggregates a user's participation within one bet category
type CategoryStats struct {
	Category BetCategory `json:"category"`
	Total    int         `json:"total"`
	Won      int         `json:"won"`
	Lost     int         `json:"lost"`
	Staked   int64       `json:"staked"`
	Payouts  int64       `json:"payouts"`
}
