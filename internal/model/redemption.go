package model

import "time"

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionApproved  RedemptionStatus = "approved"
	RedemptionDenied    RedemptionStatus = "denied"
	RedemptionFulfilled RedemptionStatus = "fulfilled"
)

func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionApproved, RedemptionDenied, RedemptionFulfilled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next. Denied and fulfilled are terminal; no transition skips a state.
func (s RedemptionStatus) CanTransitionTo(next RedemptionStatus) bool {
	switch s {
	case RedemptionPending:
		return next == RedemptionApproved || next == RedemptionDenied
	case RedemptionApproved:
		return next == RedemptionFulfilled || next == RedemptionDenied
	}
	return false
}

// RewardRedemption is only ever mutated through the workflow transitions;
// points_spent snapshots the catalog cost at request time so later catalog
// edits cannot change an open redemption.
type RewardRedemption struct {
	ID          int64            `json:"id"`
	MemberID    int64            `json:"member_id"`
	HouseholdID int64            `json:"household_id"`
	RewardID    int64            `json:"reward_id"`
	PointsSpent int              `json:"points_spent"`
	Status      RedemptionStatus `json:"status"`
	RequestedAt time.Time        `json:"requested_at"`
	DecidedAt   *time.Time       `json:"decided_at"`
	DecidedBy   *int64           `json:"decided_by"`
	DenyReason  string           `json:"deny_reason,omitempty"`
	FulfilledAt *time.Time       `json:"fulfilled_at"`
}
