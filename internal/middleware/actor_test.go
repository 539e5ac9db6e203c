package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mossfirth/hearthward/internal/auth"
)

func TestRequireActorMissingHeaders(t *testing.T) {
	handler := RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler called without identity headers")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/rewards", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireActorLoadsContext(t *testing.T) {
	var got auth.Actor
	handler := RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/rewards", nil)
	req.Header.Set(HeaderMemberID, "7")
	req.Header.Set(HeaderHouseholdID, "3")
	req.Header.Set(HeaderRole, "approver")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.MemberID != 7 || got.HouseholdID != 3 || !got.Approver {
		t.Errorf("actor = %+v, want member 7, household 3, approver", got)
	}
}

func TestRequireActorRejectsBadIDs(t *testing.T) {
	handler := RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, tt := range []struct {
		name   string
		member string
		house  string
	}{
		{"non-numeric member", "abc", "3"},
		{"zero member", "0", "3"},
		{"missing household", "7", ""},
		{"negative household", "7", "-1"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderMemberID, tt.member)
			req.Header.Set(HeaderHouseholdID, tt.house)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRequireApprover(t *testing.T) {
	handler := RequireApprover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/api/redemptions/1/approve", nil)
	req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{MemberID: 7, HouseholdID: 3}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-approver status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/redemptions/1/approve", nil)
	req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{MemberID: 7, HouseholdID: 3, Approver: true}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("approver status = %d, want %d", rec.Code, http.StatusOK)
	}
}
