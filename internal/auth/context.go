package auth

import "context"

type contextKey struct{}

// Actor carries the identity facts the fronting application asserts for a
// request. Hearthward does not authenticate anyone itself; it only checks
// these facts where an operation demands an approver.
type Actor struct {
	MemberID    int64
	HouseholdID int64
	Approver    bool
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

func HouseholdID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return a.HouseholdID
}

func MemberID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return a.MemberID
}

func IsApprover(ctx context.Context) bool {
	a, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return a.Approver
}
