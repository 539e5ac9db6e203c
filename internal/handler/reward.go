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

type RewardHandler struct {
	rewards *store.RewardStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewards: rs, hub: hub, logger: logger}
}

func (h *RewardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type rewardRequest struct {
	Name                  string `json:"name"`
	Description           string `json:"description"`
	CostPoints            int    `json:"cost_points"`
	Category              string `json:"category"`
	Emoji                 string `json:"emoji"`
	MaxRedemptionsPerWeek *int   `json:"max_redemptions_per_week"`
	Active                bool   `json:"active"`
}

func (r rewardRequest) input() store.RewardInput {
	return store.RewardInput{
		Name:                  r.Name,
		Description:           r.Description,
		CostPoints:            r.CostPoints,
		Category:              model.RewardCategory(r.Category),
		Emoji:                 r.Emoji,
		MaxRedemptionsPerWeek: r.MaxRedemptionsPerWeek,
		Active:                r.Active,
	}
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	householdID := auth.HouseholdID(r.Context())
	creator := auth.MemberID(r.Context())

	reward, err := h.rewards.Create(householdID, &creator, req.input())
	if err != nil {
		writeStoreError(w, h.logger, err, "create reward")
		return
	}

	h.broadcast(websocket.NewMessage("reward", "created", reward.ID, householdID, nil))
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	rewards, err := h.rewards.List(auth.HouseholdID(r.Context()), includeInactive)
	if err != nil {
		writeStoreError(w, h.logger, err, "list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	reward, err := h.rewards.Update(id, req.input())
	if err != nil {
		writeStoreError(w, h.logger, err, "update reward")
		return
	}

	h.broadcast(websocket.NewMessage("reward", "updated", id, reward.HouseholdID, nil))
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.rewards.Delete(id); err != nil {
		writeStoreError(w, h.logger, err, "delete reward")
		return
	}

	h.broadcast(websocket.NewMessage("reward", "deleted", id, auth.HouseholdID(r.Context()), nil))
	w.WriteHeader(http.StatusNoContent)
}
