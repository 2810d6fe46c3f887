// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/herolab/herorank/internal/adapters/repository"
	service "github.com/herolab/herorank/internal/app"
	"github.com/herolab/herorank/internal/domain/model"
	"github.com/herolab/herorank/internal/domain/types"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Vote paths.
	ApplyVote(ctx context.Context, v model.Vote) (model.Outcome, error)
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Enqueue(ctx context.Context, v model.Vote) bool

	// Ranking reads.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, heroID int64) (Entry, error)

	// Admin operations.
	Recompute(ctx context.Context) (service.RecomputeReport, error)
	CheckConsistency(ctx context.Context) (service.ConsistencyReport, error)
	Repair(ctx context.Context) (int, error)
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	voteHandler     *VoteHandler
	batchHandler    *BatchVoteHandler
	rankingsHandler *RankingsHandler
	rankHandler     *RankHandler
	adminHandler    *AdminHandler
	statsHandler    *StatsHandler
	healthHandler   *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRankingsLimit int) *Server {
	return &Server{
		voteHandler:     NewVoteHandler(deps),
		batchHandler:    NewBatchVoteHandler(deps),
		rankingsHandler: NewRankingsHandler(deps, maxRankingsLimit),
		rankHandler:     NewRankHandler(deps),
		adminHandler:    NewAdminHandler(deps),
		statsHandler:    NewStatsHandler(statsProvider),
		healthHandler:   NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/votes", MetricsMiddleware(s.voteHandler.HandlePostVote, "votes"))
	mux.HandleFunc("/votes/batch", MetricsMiddleware(s.batchHandler.HandlePostBatch, "votes_batch"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/admin/recompute", MetricsMiddleware(s.adminHandler.HandleRecompute, "admin_recompute"))
	mux.HandleFunc("/admin/consistency", MetricsMiddleware(s.adminHandler.HandleConsistency, "admin_consistency"))
	mux.HandleFunc("/admin/repair", MetricsMiddleware(s.adminHandler.HandleRepair, "admin_repair"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
