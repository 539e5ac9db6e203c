package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mossfirth/hearthward/internal/model"
	"github.com/mossfirth/hearthward/internal/progress"
)

// RedemptionStore owns the approval state machine and the only critical
// section in the system: the redeem write, where the balance check and the
// paired spend + redemption inserts must commit or roll back together.
type RedemptionStore struct {
	db *sql.DB
}

func NewRedemptionStore(db *sql.DB) *RedemptionStore {
	return &RedemptionStore{db: db}
}

const redemptionCols = `id, member_id, household_id, reward_id, points_spent, status,
	requested_at, decided_at, decided_by, deny_reason, fulfilled_at`

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.RewardRedemption, error) {
	var r model.RewardRedemption
	var decidedAt, fulfilledAt sql.NullTime
	var decidedBy sql.NullInt64

	err := scanner.Scan(&r.ID, &r.MemberID, &r.HouseholdID, &r.RewardID, &r.PointsSpent,
		&r.Status, &r.RequestedAt, &decidedAt, &decidedBy, &r.DenyReason, &fulfilledAt)
	if err != nil {
		return nil, err
	}

	if decidedAt.Valid {
		r.DecidedAt = &decidedAt.Time
	}
	if decidedBy.Valid {
		r.DecidedBy = &decidedBy.Int64
	}
	if fulfilledAt.Valid {
		r.FulfilledAt = &fulfilledAt.Time
	}
	return &r, nil
}

const (
	redeemMaxRetries    = 3
	redeemRetryInterval = 25 * time.Millisecond
)

// Redeem checks balance, active flag, and the weekly limit, then atomically
// appends the spend transaction and inserts the pending redemption. Lock
// contention from a concurrent redeem is retried a bounded number of times
// before surfacing ErrConflict.
func (s *RedemptionStore) Redeem(ctx context.Context, memberID, householdID, rewardID int64) (*model.RewardRedemption, error) {
	var redemptionID int64

	backoff := retry.WithMaxRetries(redeemMaxRetries, retry.NewConstant(redeemRetryInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := s.redeemOnce(memberID, householdID, rewardID)
		if err != nil {
			if isLockContention(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		redemptionID = id
		return nil
	})
	if err != nil {
		if isLockContention(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return s.GetByID(redemptionID)
}

// redeemOnce runs one attempt of the redemption critical section in a single
// SQLite transaction. The balance is re-read after the spend insert: by then
// this transaction holds the write lock, so the sum reflects every committed
// spend plus our own, and going negative means a concurrent redeem won.
func (s *RedemptionStore) redeemOnce(memberID, householdID, rewardID int64) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin redeem: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ? AND household_id = ?`,
		rewardID, householdID)
	reward, err := scanReward(row)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get reward: %w", err)
	}
	if !reward.Active {
		return 0, ErrRewardInactive
	}

	balance, err := ledgerBalance(tx, memberID, householdID)
	if err != nil {
		return 0, err
	}
	if balance < reward.CostPoints {
		return 0, ErrInsufficientPoints
	}

	if reward.MaxRedemptionsPerWeek != nil {
		weekStart := progress.WeekStart(time.Now().In(householdLocation(tx, householdID)))
		var count int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM reward_redemptions
			 WHERE member_id = ? AND reward_id = ? AND status IN (?, ?, ?) AND requested_at >= ?`,
			memberID, rewardID,
			string(model.RedemptionPending), string(model.RedemptionApproved), string(model.RedemptionFulfilled),
			weekStart.UTC(),
		).Scan(&count)
		if err != nil {
			return 0, fmt.Errorf("count weekly redemptions: %w", err)
		}
		if count >= *reward.MaxRedemptionsPerWeek {
			return 0, ErrWeeklyLimitExceeded
		}
	}

	result, err := tx.Exec(
		`INSERT INTO reward_redemptions (member_id, household_id, reward_id, points_spent, status, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		memberID, householdID, rewardID, reward.CostPoints,
		string(model.RedemptionPending), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert redemption: %w", err)
	}
	redemptionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := appendTransaction(tx, memberID, householdID, -reward.CostPoints,
		model.ReasonRedemptionSpend, &redemptionID); err != nil {
		return 0, err
	}

	// Pre-commit guard: the authoritative sum must not have gone negative.
	balance, err = ledgerBalance(tx, memberID, householdID)
	if err != nil {
		return 0, err
	}
	if balance < 0 {
		return 0, ErrInsufficientPoints
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit redeem: %w", err)
	}
	return redemptionID, nil
}

// isLockContention detects SQLite writer contention, which is safe to retry.
func isLockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *RedemptionStore) GetByID(id int64) (*model.RewardRedemption, error) {
	row := s.db.QueryRow(`SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

// List returns the household's redemptions, newest first, optionally
// filtered by status.
func (s *RedemptionStore) List(householdID int64, status model.RedemptionStatus) ([]model.RewardRedemption, error) {
	query := `SELECT ` + redemptionCols + ` FROM reward_redemptions WHERE household_id = ?`
	args := []any{householdID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY requested_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []model.RewardRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}

// Approve moves a pending redemption to approved. Any other starting state
// fails with ErrInvalidTransition so racing approvers get a clear signal.
func (s *RedemptionStore) Approve(id, approverID int64) (*model.RewardRedemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin approve: %w", err)
	}
	defer tx.Rollback()

	r, err := getRedemption(tx, id)
	if err != nil {
		return nil, err
	}
	if !r.Status.CanTransitionTo(model.RedemptionApproved) {
		return nil, ErrInvalidTransition
	}

	_, err = tx.Exec(
		`UPDATE reward_redemptions SET status = ?, decided_by = ?, decided_at = ? WHERE id = ?`,
		string(model.RedemptionApproved), approverID, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("approve redemption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approve: %w", err)
	}
	return s.GetByID(id)
}

// Deny moves a pending or approved redemption to denied and refunds the
// points spent, both in one transaction. A second deny of the same
// redemption fails with ErrInvalidTransition and never double-refunds.
func (s *RedemptionStore) Deny(id, approverID int64, reason string) (*model.RewardRedemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin deny: %w", err)
	}
	defer tx.Rollback()

	r, err := getRedemption(tx, id)
	if err != nil {
		return nil, err
	}
	if err := denyRedemption(tx, r, &approverID, reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit deny: %w", err)
	}
	return s.GetByID(id)
}

// Fulfill marks an approved redemption as handed over. No ledger effect:
// the points were spent when the redemption was requested.
func (s *RedemptionStore) Fulfill(id int64) (*model.RewardRedemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin fulfill: %w", err)
	}
	defer tx.Rollback()

	r, err := getRedemption(tx, id)
	if err != nil {
		return nil, err
	}
	if !r.Status.CanTransitionTo(model.RedemptionFulfilled) {
		return nil, ErrInvalidTransition
	}

	_, err = tx.Exec(
		`UPDATE reward_redemptions SET status = ?, fulfilled_at = ? WHERE id = ?`,
		string(model.RedemptionFulfilled), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("fulfill redemption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fulfill: %w", err)
	}
	return s.GetByID(id)
}

// PendingCount counts open (pending or approved) redemptions for a member.
func (s *RedemptionStore) PendingCount(memberID, householdID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM reward_redemptions
		 WHERE member_id = ? AND household_id = ? AND status IN (?, ?)`,
		memberID, householdID,
		string(model.RedemptionPending), string(model.RedemptionApproved),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending redemptions: %w", err)
	}
	return count, nil
}

func getRedemption(q dbtx, id int64) (*model.RewardRedemption, error) {
	row := q.QueryRow(`SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

// denyRedemption applies the deny transition and appends the refund on the
// caller's transaction. Shared by Deny and the catalog delete cascade.
func denyRedemption(q dbtx, r *model.RewardRedemption, decidedBy *int64, reason string) error {
	if !r.Status.CanTransitionTo(model.RedemptionDenied) {
		return ErrInvalidTransition
	}

	var decider sql.NullInt64
	if decidedBy != nil {
		decider = sql.NullInt64{Int64: *decidedBy, Valid: true}
	}

	_, err := q.Exec(
		`UPDATE reward_redemptions SET status = ?, decided_by = ?, decided_at = ?, deny_reason = ? WHERE id = ?`,
		string(model.RedemptionDenied), decider, time.Now().UTC(), reason, r.ID,
	)
	if err != nil {
		return fmt.Errorf("deny redemption: %w", err)
	}

	if _, err := appendTransaction(q, r.MemberID, r.HouseholdID, r.PointsSpent,
		model.ReasonRedemptionRefund, &r.ID); err != nil {
		return err
	}
	return nil
}
