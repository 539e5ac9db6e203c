package model

// LevelInfo is derived from total points against the static level table.
type LevelInfo struct {
	Level           int    `json:"level"`
	Name            string `json:"name"`
	Badge           string `json:"badge"`
	ProgressPercent int    `json:"progress_percent"`
	PointsToNext    int    `json:"points_to_next"`
}

// MemberStats is a read-side projection over the ledger and completion log.
// Nothing here is authoritative on its own; it is recomputed on every read.
type MemberStats struct {
	MemberID           int64     `json:"member_id"`
	HouseholdID        int64     `json:"household_id"`
	TotalPoints        int       `json:"total_points"`
	Level              LevelInfo `json:"level"`
	CurrentStreak      int       `json:"current_streak"`
	LongestStreak      int       `json:"longest_streak"`
	PointsThisWeek     int       `json:"points_this_week"`
	PointsThisMonth    int       `json:"points_this_month"`
	PendingRedemptions int       `json:"pending_redemptions"`
}

type LeaderboardPeriod string

const (
	PeriodWeek  LeaderboardPeriod = "week"
	PeriodMonth LeaderboardPeriod = "month"
	PeriodAll   LeaderboardPeriod = "all"
)

func (p LeaderboardPeriod) Valid() bool {
	return p == PeriodWeek || p == PeriodMonth || p == PeriodAll
}

// LeaderboardEntry ranks net point activity (earns and refunds minus spends)
// over the period. Ties share a rank; ordering within a tie is by member id.
type LeaderboardEntry struct {
	MemberID    int64  `json:"member_id"`
	Name        string `json:"name"`
	AvatarEmoji string `json:"avatar_emoji"`
	Points      int    `json:"points"`
	Rank        int    `json:"rank"`
}
