package middleware

import (
	"net/http"
	"strconv"

	"github.com/mossfirth/hearthward/internal/auth"
)

// Identity headers set by the fronting application. Hearthward treats them
// as externally established facts; it performs no authentication of its own.
const (
	HeaderMemberID    = "X-Member-ID"
	HeaderHouseholdID = "X-Household-ID"
	HeaderRole        = "X-Member-Role"
)

// RequireActor loads the asserted identity into the request context and
// rejects requests that carry none.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberID, err := strconv.ParseInt(r.Header.Get(HeaderMemberID), 10, 64)
		if err != nil || memberID <= 0 {
			http.Error(w, "missing or invalid "+HeaderMemberID, http.StatusUnauthorized)
			return
		}
		householdID, err := strconv.ParseInt(r.Header.Get(HeaderHouseholdID), 10, 64)
		if err != nil || householdID <= 0 {
			http.Error(w, "missing or invalid "+HeaderHouseholdID, http.StatusUnauthorized)
			return
		}

		actor := auth.Actor{
			MemberID:    memberID,
			HouseholdID: householdID,
			Approver:    r.Header.Get(HeaderRole) == "approver",
		}
		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}

// RequireApprover gates the decision endpoints (approve, deny, fulfill) and
// catalog writes on the asserted approver fact.
func RequireApprover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsApprover(r.Context()) {
			http.Error(w, "approver role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
