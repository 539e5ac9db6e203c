package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mossfirth/hearthward/internal/model"
	"github.com/mossfirth/hearthward/internal/progress"
)

// StatsStore assembles read-side projections over the ledger, completion
// log, and redemption rows. It never writes.
type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// MemberStats recomputes every derived figure from the ledger at call time.
// now is taken as a parameter so tests can pin the clock.
func (s *StatsStore) MemberStats(memberID, householdID int64, now time.Time) (*model.MemberStats, error) {
	loc := householdLocation(s.db, householdID)
	localNow := now.In(loc)

	total, err := ledgerBalance(s.db, memberID, householdID)
	if err != nil {
		return nil, err
	}

	days, err := completionDays(s.db, memberID, householdID)
	if err != nil {
		return nil, err
	}
	current, longest := progress.ComputeStreak(days, localNow)

	weekPoints, err := s.sumSince(memberID, householdID, progress.WeekStart(localNow))
	if err != nil {
		return nil, err
	}
	monthPoints, err := s.sumSince(memberID, householdID, progress.MonthStart(localNow))
	if err != nil {
		return nil, err
	}

	var pending int
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM reward_redemptions
		 WHERE member_id = ? AND household_id = ? AND status IN (?, ?)`,
		memberID, householdID,
		string(model.RedemptionPending), string(model.RedemptionApproved),
	).Scan(&pending)
	if err != nil {
		return nil, fmt.Errorf("count open redemptions: %w", err)
	}

	return &model.MemberStats{
		MemberID:           memberID,
		HouseholdID:        householdID,
		TotalPoints:        total,
		Level:              progress.ComputeLevel(total),
		CurrentStreak:      current,
		LongestStreak:      longest,
		PointsThisWeek:     weekPoints,
		PointsThisMonth:    monthPoints,
		PendingRedemptions: pending,
	}, nil
}

func (s *StatsStore) sumSince(memberID, householdID int64, since time.Time) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM point_transactions
		 WHERE member_id = ? AND household_id = ? AND created_at >= ?`,
		memberID, householdID, since.UTC(),
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions since: %w", err)
	}
	return int(sum.Int64), nil
}

// Leaderboard sums net point activity per member over the period window.
// Every household member appears, including those with no activity. Ties
// share a rank; within a tie, ordering is by member id for determinism.
func (s *StatsStore) Leaderboard(householdID int64, period model.LeaderboardPeriod, now time.Time) ([]model.LeaderboardEntry, error) {
	if !period.Valid() {
		return nil, &model.ValidationError{Field: "period", Message: "must be week, month, or all"}
	}

	loc := householdLocation(s.db, householdID)
	localNow := now.In(loc)

	query := `SELECT m.id, m.name, m.avatar_emoji, COALESCE(SUM(t.amount), 0) AS points
		FROM members m
		LEFT JOIN point_transactions t
		  ON t.member_id = m.id AND t.household_id = m.household_id`
	args := []any{}

	switch period {
	case model.PeriodWeek:
		query += ` AND t.created_at >= ?`
		args = append(args, progress.WeekStart(localNow).UTC())
	case model.PeriodMonth:
		query += ` AND t.created_at >= ?`
		args = append(args, progress.MonthStart(localNow).UTC())
	}

	query += ` WHERE m.household_id = ? GROUP BY m.id ORDER BY points DESC, m.id ASC`
	args = append(args, householdID)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.MemberID, &e.Name, &e.AvatarEmoji, &e.Points); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Competition ranking: equal points share a rank, the next distinct
	// score drops to its positional rank.
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries, nil
}
