package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mossfirth/hearthward/internal/backup"
	"github.com/mossfirth/hearthward/internal/handler"
	"github.com/mossfirth/hearthward/internal/middleware"
	"github.com/mossfirth/hearthward/internal/store"
	ws "github.com/mossfirth/hearthward/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	memberH     *handler.MemberHandler
	rewardH     *handler.RewardHandler
	redemptionH *handler.RedemptionHandler
	eventH      *handler.EventHandler
	statsH      *handler.StatsHandler
	rateLimiter *middleware.RateLimiter
	snapshotter *backup.Snapshotter
	logger      *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	householdStore := store.NewHouseholdStore(db)
	memberStore := store.NewMemberStore(db)
	ledgerStore := store.NewLedgerStore(db)
	rewardStore := store.NewRewardStore(db)
	redemptionStore := store.NewRedemptionStore(db)
	completionStore := store.NewCompletionStore(db)
	statsStore := store.NewStatsStore(db)

	return &Server{
		db:          db,
		hub:         hub,
		memberH:     handler.NewMemberHandler(householdStore, memberStore, logger.With("component", "member")),
		rewardH:     handler.NewRewardHandler(rewardStore, hub, logger.With("component", "reward")),
		redemptionH: handler.NewRedemptionHandler(redemptionStore, hub, logger.With("component", "redemption")),
		eventH:      handler.NewEventHandler(completionStore, hub, logger.With("component", "event")),
		statsH:      handler.NewStatsHandler(statsStore, ledgerStore, logger.With("component", "stats")),
		rateLimiter: middleware.NewRateLimiter(),
		snapshotter: backup.NewSnapshotter(backupCfg, db, logger.With("component", "backup")),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Snapshotter returns the backup snapshotter, nil when not configured.
func (s *Server) Snapshotter() *backup.Snapshotter {
	return s.snapshotter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no identity headers required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/households", s.memberH.CreateHousehold)

	// Everything else requires the asserted member identity
	actorMux := http.NewServeMux()
	s.registerActorRoutes(actorMux)
	outerMux.Handle("/", middleware.RequireActor(actorMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) approverOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireApprover(h)
}

func (s *Server) registerActorRoutes(mux *http.ServeMux) {
	// Member API routes
	mux.HandleFunc("POST /api/members", s.memberH.CreateMember)
	mux.HandleFunc("GET /api/members", s.memberH.ListMembers)
	mux.HandleFunc("GET /api/members/{id}/stats", s.statsH.MemberStats)
	mux.HandleFunc("GET /api/members/{id}/transactions", s.statsH.Transactions)
	mux.HandleFunc("GET /api/members/{id}/completions", s.eventH.Completions)

	// Reward catalog routes; writes are approver-only
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.Handle("POST /api/rewards", s.approverOnly(s.rewardH.Create))
	mux.Handle("PUT /api/rewards/{id}", s.approverOnly(s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}", s.approverOnly(s.rewardH.Delete))

	// Redemption routes
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rateLimitedHandler(s.redemptionH.Redeem))
	mux.HandleFunc("GET /api/redemptions", s.redemptionH.List)
	mux.Handle("POST /api/redemptions/{id}/approve", s.approverOnly(s.redemptionH.Approve))
	mux.Handle("POST /api/redemptions/{id}/deny", s.approverOnly(s.redemptionH.Deny))
	mux.Handle("POST /api/redemptions/{id}/fulfill", s.approverOnly(s.redemptionH.Fulfill))

	// Completion events from the task/chore side
	mux.HandleFunc("POST /api/events/work-completed", s.eventH.WorkCompleted)

	// Leaderboard
	mux.HandleFunc("GET /api/leaderboard", s.statsH.Leaderboard)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))
}
