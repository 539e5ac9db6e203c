package store

import "errors"

// Sentinel errors for business-rule rejections. Handlers translate these to
// HTTP statuses; callers distinguish them with errors.Is.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount rejects zero-amount ledger appends.
	ErrInvalidAmount = errors.New("transaction amount must be non-zero")

	// ErrInvalidReason rejects ledger appends with a reason outside the
	// closed set.
	ErrInvalidReason = errors.New("unknown transaction reason")

	// ErrInsufficientPoints rejects a redeem whose cost exceeds the
	// member's balance.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrRewardInactive rejects redeeming a deactivated reward.
	ErrRewardInactive = errors.New("reward is not active")

	// ErrWeeklyLimitExceeded rejects a redeem past the reward's
	// per-member weekly cap.
	ErrWeeklyLimitExceeded = errors.New("weekly redemption limit exceeded")

	// ErrInvalidTransition rejects a redemption state change the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid redemption state transition")

	// ErrConflict is surfaced when the redeem critical section keeps
	// losing the write lock after bounded retries.
	ErrConflict = errors.New("conflicting concurrent update, retry")
)
