package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mossfirth/hearthward/internal/auth"
	"github.com/mossfirth/hearthward/internal/model"
	"github.com/mossfirth/hearthward/internal/store"
	"github.com/mossfirth/hearthward/internal/websocket"
)

type RedemptionHandler struct {
	redemptions *store.RedemptionStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewRedemptionHandler(rs *store.RedemptionStore, hub *websocket.Hub, logger *slog.Logger) *RedemptionHandler {
	return &RedemptionHandler{redemptions: rs, hub: hub, logger: logger}
}

func (h *RedemptionHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Redeem spends the acting member's points on the reward named in the path.
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	rewardID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	memberID := auth.MemberID(r.Context())
	householdID := auth.HouseholdID(r.Context())

	redemption, err := h.redemptions.Redeem(r.Context(), memberID, householdID, rewardID)
	if err != nil {
		writeStoreError(w, h.logger, err, "redeem reward")
		return
	}

	h.broadcast(websocket.NewMessage("redemption", "requested", redemption.ID, householdID, map[string]any{
		"reward_id":    rewardID,
		"points_spent": redemption.PointsSpent,
	}))
	writeJSON(w, http.StatusCreated, redemption)
}

func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.RedemptionStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	redemptions, err := h.redemptions.List(auth.HouseholdID(r.Context()), status)
	if err != nil {
		writeStoreError(w, h.logger, err, "list redemptions")
		return
	}
	if redemptions == nil {
		redemptions = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}

func (h *RedemptionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	redemption, err := h.redemptions.Approve(id, auth.MemberID(r.Context()))
	if err != nil {
		writeStoreError(w, h.logger, err, "approve redemption")
		return
	}

	h.broadcast(websocket.NewMessage("redemption", "approved", id, redemption.HouseholdID, nil))
	writeJSON(w, http.StatusOK, redemption)
}

func (h *RedemptionHandler) Deny(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		json.NewDecoder(r.Body).Decode(&req)
	}

	redemption, err := h.redemptions.Deny(id, auth.MemberID(r.Context()), req.Reason)
	if err != nil {
		writeStoreError(w, h.logger, err, "deny redemption")
		return
	}

	h.broadcast(websocket.NewMessage("redemption", "denied", id, redemption.HouseholdID, map[string]any{
		"refunded": redemption.PointsSpent,
	}))
	writeJSON(w, http.StatusOK, redemption)
}

func (h *RedemptionHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	redemption, err := h.redemptions.Fulfill(id)
	if err != nil {
		writeStoreError(w, h.logger, err, "fulfill redemption")
		return
	}

	h.broadcast(websocket.NewMessage("redemption", "fulfilled", id, redemption.HouseholdID, nil))
	writeJSON(w, http.StatusOK, redemption)
}
