package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mossfirth/hearthward/internal/auth"
	"github.com/mossfirth/hearthward/internal/model"
	"github.com/mossfirth/hearthward/internal/store"
	"github.com/mossfirth/hearthward/internal/websocket"
)

// EventHandler ingests completion events from the task/chore side of the
// app. Hearthward does not own task business rules; it only consumes the
// fact "work completed, award N points".
type EventHandler struct {
	completions *store.CompletionStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewEventHandler(cs *store.CompletionStore, hub *websocket.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{completions: cs, hub: hub, logger: logger}
}

type workCompletedRequest struct {
	MemberID    int64  `json:"member_id"`
	Kind        string `json:"kind"`
	Points      int    `json:"points"`
	ReferenceID *int64 `json:"reference_id"`
}

func (h *EventHandler) WorkCompleted(w http.ResponseWriter, r *http.Request) {
	var req workCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.MemberID == 0 {
		req.MemberID = auth.MemberID(r.Context())
	}
	householdID := auth.HouseholdID(r.Context())

	result, err := h.completions.RecordWork(req.MemberID, householdID, req.Kind, req.Points, req.ReferenceID, time.Now())
	if err != nil {
		writeStoreError(w, h.logger, err, "record completed work")
		return
	}

	if h.hub != nil {
		extra := map[string]any{
			"member_id":      req.MemberID,
			"points":         result.Earned.Amount,
			"current_streak": result.CurrentStreak,
		}
		if result.StreakBonus != nil {
			extra["streak_bonus"] = result.StreakBonus.Amount
		}
		h.hub.Broadcast(websocket.NewMessage("points", "earned", result.Earned.ID, householdID, extra))
	}

	writeJSON(w, http.StatusCreated, result)
}

// Completions returns a member's recent work-completion log, newest first.
func (h *EventHandler) Completions(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	completions, err := h.completions.ListByMember(memberID, auth.HouseholdID(r.Context()), 50)
	if err != nil {
		writeStoreError(w, h.logger, err, "list completions")
		return
	}
	if completions == nil {
		completions = []model.WorkCompletion{}
	}
	writeJSON(w, http.StatusOK, completions)
}
