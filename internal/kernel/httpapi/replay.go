package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/core"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/replayengine"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

type replayHandlers struct {
	engine *replayengine.Engine
	store  storage.ReplayStore
}

type replayInitiateRequest struct {
	SHA256Hash  string `json:"sha256_hash"`
	RequestedBy string `json:"requested_by"`
	Source      string `json:"source"`
}

func (h *replayHandlers) initiate(w http.ResponseWriter, r *http.Request) {
	var req replayInitiateRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	result, err := h.engine.Initiate(r.Context(), req.SHA256Hash, req.RequestedBy, req.Source)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeOK(w, http.StatusCreated, map[string]interface{}{
		"replay_id": result.Attempt.ReplayID,
		"status":    result.Attempt.Status,
		"content":   result.Content,
	})
}

type replayCompleteRequest struct {
	ReplayID     string `json:"replay_id"`
	OriginalHash string `json:"original_hash"`
	NewHash      string `json:"new_hash"`
}

func (h *replayHandlers) complete(w http.ResponseWriter, r *http.Request) {
	var req replayCompleteRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	attempt, err := h.engine.Complete(r.Context(), req.ReplayID, req.OriginalHash, req.NewHash)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeOK(w, http.StatusOK, map[string]interface{}{
		"replay_id":     attempt.ReplayID,
		"status":        attempt.Status,
		"drift_details": attempt.DriftDetails,
	})
}

func (h *replayHandlers) history(w http.ResponseWriter, r *http.Request) {
	envelopeID := chi.URLParam(r, "envelopeID")
	limit := core.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	limit = core.ClampLimit(limit, core.DefaultListLimit, core.MaxListLimit)

	attempts, err := h.store.History(r.Context(), envelopeID, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, attempts)
}
