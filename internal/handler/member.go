package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mossfirth/hearthward/internal/auth"
	"github.com/mossfirth/hearthward/internal/model"
	"github.com/mossfirth/hearthward/internal/store"
)

// MemberHandler covers the small identity surface the rewards core needs:
// enough household and member rows for names, timezones, and foreign keys.
// Full profile management lives in the fronting application.
type MemberHandler struct {
	households *store.HouseholdStore
	members    *store.MemberStore
	logger     *slog.Logger
}

func NewMemberHandler(hs *store.HouseholdStore, ms *store.MemberStore, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{households: hs, members: ms, logger: logger}
}

func (h *MemberHandler) CreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	household, err := h.households.Create(req.Name, req.Timezone)
	if err != nil {
		writeStoreError(w, h.logger, err, "create household")
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		AvatarEmoji string `json:"avatar_emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	member, err := h.members.Create(auth.HouseholdID(r.Context()), req.Name, req.AvatarEmoji)
	if err != nil {
		writeStoreError(w, h.logger, err, "create member")
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.ListByHousehold(auth.HouseholdID(r.Context()))
	if err != nil {
		writeStoreError(w, h.logger, err, "list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}
