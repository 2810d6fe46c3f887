// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	service "github.com/herolab/herorank/internal/app"
	"github.com/herolab/herorank/internal/domain/model"
)

// voteRequest mirrors the JSON schema for POST /votes.
type voteRequest struct {
	VoteID   string `json:"vote_id"`
	WinnerID int64  `json:"winner_id"`
	LoserID  int64  `json:"loser_id"`
	TS       string `json:"ts"`
}

// toVote builds the domain vote, generating an ID and timestamp where the
// client omitted them.
func (r voteRequest) toVote() (model.Vote, error) {
	v := model.Vote{
		VoteID:   strings.TrimSpace(r.VoteID),
		WinnerID: r.WinnerID,
		LoserID:  r.LoserID,
		TS:       time.Now(),
	}
	if v.VoteID == "" {
		v.VoteID = uuid.NewString()
	}
	if ts := strings.TrimSpace(r.TS); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return model.Vote{}, errors.New("invalid ts; must be RFC3339")
		}
		v.TS = parsed
	}
	return v, nil
}

// VoteHandler handles the synchronous voting path.
type VoteHandler struct {
	deps Dependencies
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(deps Dependencies) *VoteHandler {
	return &VoteHandler{deps: deps}
}

// HandlePostVote handles POST /votes requests. The vote is applied
// synchronously and the outcome returned so the voting UI can show the
// rating movement immediately.
func (h *VoteHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	v, err := req.toVote()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if h.deps.SeenAndRecord(r.Context(), v.VoteID) {
		writeError(w, http.StatusConflict, "duplicate_vote", ErrDuplicateVote)
		return
	}

	outcome, err := h.deps.ApplyVote(r.Context(), v)
	if err != nil {
		// The vote did not land; let the client retry the same ID.
		h.deps.Unrecord(r.Context(), v.VoteID)
		switch {
		case errors.Is(err, service.ErrInvalidComparison):
			writeError(w, http.StatusBadRequest, "invalid_comparison", err)
		case errors.Is(err, service.ErrRecomputeInProgress):
			writeError(w, http.StatusServiceUnavailable, "recompute_in_progress", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// batchRequest mirrors the JSON schema for POST /votes/batch.
type batchRequest struct {
	Votes []voteRequest `json:"votes"`
}

type batchResponse struct {
	Accepted  int `json:"accepted"`
	Duplicate int `json:"duplicate"`
	Rejected  int `json:"rejected"`
}

// BatchVoteHandler handles asynchronous bulk vote imports.
type BatchVoteHandler struct {
	deps Dependencies
}

// NewBatchVoteHandler creates a new batch vote handler.
func NewBatchVoteHandler(deps Dependencies) *BatchVoteHandler {
	return &BatchVoteHandler{deps: deps}
}

// HandlePostBatch handles POST /votes/batch requests. Votes are enqueued
// for the worker pool; a full queue fails the whole request with 429 so the
// client can back off and resend.
func (h *BatchVoteHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if len(req.Votes) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing votes"))
		return
	}

	var resp batchResponse
	for _, vr := range req.Votes {
		v, err := vr.toVote()
		if err != nil {
			resp.Rejected++
			continue
		}
		if h.deps.SeenAndRecord(r.Context(), v.VoteID) {
			resp.Duplicate++
			continue
		}
		if !h.deps.Enqueue(r.Context(), v) {
			h.deps.Unrecord(r.Context(), v.VoteID)
			writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
			return
		}
		resp.Accepted++
	}
	writeJSON(w, http.StatusAccepted, resp)
}
