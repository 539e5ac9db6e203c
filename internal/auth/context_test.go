package auth

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{MemberID: 7, HouseholdID: 3, Approver: true})

	a, ok := FromContext(ctx)
	if !ok {
		t.Fatal("actor not found in context")
	}
	if a.MemberID != 7 || a.HouseholdID != 3 || !a.Approver {
		t.Errorf("actor = %+v", a)
	}

	if MemberID(ctx) != 7 {
		t.Errorf("MemberID = %d, want 7", MemberID(ctx))
	}
	if HouseholdID(ctx) != 3 {
		t.Errorf("HouseholdID = %d, want 3", HouseholdID(ctx))
	}
	if !IsApprover(ctx) {
		t.Error("IsApprover = false, want true")
	}
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("expected no actor")
	}
	if MemberID(ctx) != 0 || HouseholdID(ctx) != 0 || IsApprover(ctx) {
		t.Error("zero values expected for empty context")
	}
}
