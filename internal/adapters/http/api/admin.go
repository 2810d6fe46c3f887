// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"

	service "github.com/herolab/herorank/internal/app"
)

// AdminHandler handles maintenance operations: batch recompute, the
// invariant scan, and the targeted repair pass.
type AdminHandler struct {
	deps Dependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// HandleRecompute handles POST /admin/recompute requests.
func (h *AdminHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.Recompute(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrRecomputeInProgress) {
			writeError(w, http.StatusConflict, "recompute_in_progress", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleConsistency handles GET /admin/consistency requests.
func (h *AdminHandler) HandleConsistency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type repairResponse struct {
	Repaired int `json:"repaired"`
}

// HandleRepair handles POST /admin/repair requests.
func (h *AdminHandler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	repaired, err := h.deps.Repair(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, repairResponse{Repaired: repaired})
}
