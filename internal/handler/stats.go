package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mossfirth/hearthward/internal/auth"
	"github.com/mossfirth/hearthward/internal/model"
	"github.com/mossfirth/hearthward/internal/store"
)

type StatsHandler struct {
	stats  *store.StatsStore
	ledger *store.LedgerStore
	logger *slog.Logger
}

func NewStatsHandler(ss *store.StatsStore, ls *store.LedgerStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: ss, ledger: ls, logger: logger}
}

func (h *StatsHandler) MemberStats(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	stats, err := h.stats.MemberStats(memberID, auth.HouseholdID(r.Context()), time.Now())
	if err != nil {
		writeStoreError(w, h.logger, err, "compute member stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	period := model.LeaderboardPeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = model.PeriodAll
	}

	entries, err := h.stats.Leaderboard(auth.HouseholdID(r.Context()), period, time.Now())
	if err != nil {
		writeStoreError(w, h.logger, err, "compute leaderboard")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Transactions returns a member's recent ledger history, newest first.
func (h *StatsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	transactions, err := h.ledger.ListByMember(memberID, auth.HouseholdID(r.Context()), 50)
	if err != nil {
		writeStoreError(w, h.logger, err, "list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.PointTransaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}
