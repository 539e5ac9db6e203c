package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mossfirth/hearthward/internal/model"
	"github.com/mossfirth/hearthward/internal/progress"
)

// CompletionStore keeps the daily work-completion log that streaks are
// computed from. The civil date is fixed at write time in the household's
// timezone so a later timezone change cannot rewrite streak history.
type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

const completionCols = `id, member_id, household_id, kind, reference_id, completed_on, created_at`

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.WorkCompletion, error) {
	var c model.WorkCompletion
	var refID sql.NullInt64

	err := scanner.Scan(&c.ID, &c.MemberID, &c.HouseholdID, &c.Kind, &refID, &c.CompletedOn, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if refID.Valid {
		c.ReferenceID = &refID.Int64
	}
	return &c, nil
}

// recordCompletion inserts one completion row on the caller's transaction
// and returns the civil date it was logged under.
func recordCompletion(q dbtx, memberID, householdID int64, kind string, referenceID *int64, at time.Time) (string, error) {
	day := progress.CivilDate(at.In(householdLocation(q, householdID)))

	var refID sql.NullInt64
	if referenceID != nil {
		refID = sql.NullInt64{Int64: *referenceID, Valid: true}
	}

	_, err := q.Exec(
		`INSERT INTO work_completions (member_id, household_id, kind, reference_id, completed_on, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		memberID, householdID, kind, refID, day, at.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert completion: %w", err)
	}
	return day, nil
}

func (s *CompletionStore) Record(memberID, householdID int64, kind string, referenceID *int64, at time.Time) (string, error) {
	return recordCompletion(s.db, memberID, householdID, kind, referenceID, at)
}

const (
	streakBonusEvery  = 7
	streakBonusPoints = 10
)

// WorkResult reports what a completed-work event produced.
type WorkResult struct {
	Earned        *model.PointTransaction `json:"earned"`
	StreakBonus   *model.PointTransaction `json:"streak_bonus,omitempty"`
	CurrentStreak int                     `json:"current_streak"`
}

// RecordWork consumes a "work completed" event: it appends the earn
// transaction and logs the completion day in one transaction. When the
// resulting streak hits a multiple of seven days, a streak bonus is
// appended too, at most once per day.
func (s *CompletionStore) RecordWork(memberID, householdID int64, kind string, points int, referenceID *int64, now time.Time) (*WorkResult, error) {
	var reason model.TransactionReason
	switch kind {
	case "task":
		reason = model.ReasonTaskCompleted
	case "chore":
		reason = model.ReasonChoreCompleted
	default:
		return nil, &model.ValidationError{Field: "kind", Message: "must be task or chore"}
	}
	if points <= 0 {
		return nil, &model.ValidationError{Field: "points", Message: "must be positive"}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin record work: %w", err)
	}
	defer tx.Rollback()

	earnID, err := appendTransaction(tx, memberID, householdID, points, reason, referenceID)
	if err != nil {
		return nil, err
	}

	if _, err := recordCompletion(tx, memberID, householdID, kind, referenceID, now); err != nil {
		return nil, err
	}

	days, err := completionDays(tx, memberID, householdID)
	if err != nil {
		return nil, err
	}
	loc := householdLocation(tx, householdID)
	current, _ := progress.ComputeStreak(days, now.In(loc))

	var bonusID int64
	if current > 0 && current%streakBonusEvery == 0 {
		awarded, err := streakBonusAwardedToday(tx, memberID, householdID, now.In(loc))
		if err != nil {
			return nil, err
		}
		if !awarded {
			bonusID, err = appendTransaction(tx, memberID, householdID, streakBonusPoints,
				model.ReasonStreakBonus, nil)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record work: %w", err)
	}

	result := &WorkResult{CurrentStreak: current}
	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM point_transactions WHERE id = ?`, earnID)
	if result.Earned, err = scanTransaction(row); err != nil {
		return nil, fmt.Errorf("get earn transaction: %w", err)
	}
	if bonusID != 0 {
		row := s.db.QueryRow(`SELECT `+transactionCols+` FROM point_transactions WHERE id = ?`, bonusID)
		if result.StreakBonus, err = scanTransaction(row); err != nil {
			return nil, fmt.Errorf("get bonus transaction: %w", err)
		}
	}
	return result, nil
}

// streakBonusAwardedToday guards the bonus against double-award when a
// member completes several chores on the day a streak milestone lands.
func streakBonusAwardedToday(q dbtx, memberID, householdID int64, localNow time.Time) (bool, error) {
	dayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, localNow.Location())
	var count int
	err := q.QueryRow(
		`SELECT COUNT(*) FROM point_transactions
		 WHERE member_id = ? AND household_id = ? AND reason = ? AND created_at >= ?`,
		memberID, householdID, string(model.ReasonStreakBonus), dayStart.UTC(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count streak bonuses: %w", err)
	}
	return count > 0, nil
}

// Days returns the distinct civil dates on which the member completed at
// least one piece of work, oldest first.
func (s *CompletionStore) Days(memberID, householdID int64) ([]string, error) {
	return completionDays(s.db, memberID, householdID)
}

func completionDays(q dbtx, memberID, householdID int64) ([]string, error) {
	rows, err := q.Query(
		`SELECT DISTINCT completed_on FROM work_completions
		 WHERE member_id = ? AND household_id = ? ORDER BY completed_on ASC`,
		memberID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completion days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan completion day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *CompletionStore) ListByMember(memberID, householdID int64, limit int) ([]model.WorkCompletion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM work_completions
		 WHERE member_id = ? AND household_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		memberID, householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.WorkCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
