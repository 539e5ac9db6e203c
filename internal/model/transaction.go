package model

import "time"

// TransactionReason classifies why points moved.
type TransactionReason string

const (
	ReasonTaskCompleted    TransactionReason = "task_completed"
	ReasonChoreCompleted   TransactionReason = "chore_completed"
	ReasonStreakBonus      TransactionReason = "streak_bonus"
	ReasonRedemptionSpend  TransactionReason = "redemption_spend"
	ReasonRedemptionRefund TransactionReason = "redemption_refund"
)

func (r TransactionReason) Valid() bool {
	switch r {
	case ReasonTaskCompleted, ReasonChoreCompleted, ReasonStreakBonus,
		ReasonRedemptionSpend, ReasonRedemptionRefund:
		return true
	}
	return false
}

// PointTransaction is one immutable ledger entry. Positive amounts are earns
// and refunds, negative amounts are spends. Corrections are made by appending
// offsetting entries, never by editing.
type PointTransaction struct {
	ID          int64             `json:"id"`
	MemberID    int64             `json:"member_id"`
	HouseholdID int64             `json:"household_id"`
	Amount      int               `json:"amount"`
	Reason      TransactionReason `json:"reason"`
	ReferenceID *int64            `json:"reference_id"`
	CreatedAt   time.Time         `json:"created_at"`
}

// WorkCompletion records that a member finished a task or chore on a given
// civil date (household timezone). One row per completion; streaks only care
// whether a date has at least one row.
type WorkCompletion struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	HouseholdID int64     `json:"household_id"`
	Kind        string    `json:"kind"`
	ReferenceID *int64    `json:"reference_id"`
	CompletedOn string    `json:"completed_on"`
	CreatedAt   time.Time `json:"created_at"`
}
