package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/envelopestore"
)

type envelopeHandlers struct {
	store *envelopestore.Store
}

type sealRequest struct {
	Content   domain.EnvelopeContentV1 `json:"content"`
	ExpiresAt *time.Time               `json:"expires_at,omitempty"`
}

func (h *envelopeHandlers) seal(w http.ResponseWriter, r *http.Request) {
	var req sealRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	actor, _ := actorFrom(r.Context())
	req.Content.SealedBy = actor.ActorID

	result, err := h.store.Seal(r.Context(), req.Content, req.ExpiresAt)
	if err != nil {
		writeErr(w, err)
		return
	}

	status := http.StatusCreated
	if !result.IsNew {
		status = http.StatusOK
	}
	writeOK(w, status, map[string]interface{}{
		"envelope_id": result.Envelope.EnvelopeID,
		"sha256_hash": result.Envelope.SHA256Hash,
		"status":      result.Envelope.Status,
		"is_new":      result.IsNew,
	})
}

type verifyRequest struct {
	EnvelopeID string `json:"envelope_id,omitempty"`
	SHA256Hash string `json:"sha256_hash,omitempty"`
}

func (h *envelopeHandlers) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}
	if req.EnvelopeID == "" && req.SHA256Hash == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "envelope_id or sha256_hash required",
		})
		return
	}

	var (
		env domain.Envelope
		err error
	)
	if req.EnvelopeID != "" {
		env, err = h.store.Verify(r.Context(), req.EnvelopeID)
	} else {
		env, err = h.store.VerifyByHash(r.Context(), req.SHA256Hash)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{
		"envelope_id": env.EnvelopeID,
		"sha256_hash": env.SHA256Hash,
		"status":      env.Status,
		"sealed_at":   env.SealedAt,
		"expires_at":  env.ExpiresAt,
	})
}

func (h *envelopeHandlers) revoke(w http.ResponseWriter, r *http.Request) {
	envelopeID := chi.URLParam(r, "envelopeID")
	actor, _ := actorFrom(r.Context())

	env, err := h.store.Revoke(r.Context(), envelopeID, actor.ActorID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{
		"envelope_id": env.EnvelopeID,
		"status":      env.Status,
		"revoked_by":  env.RevokedBy,
		"revoked_at":  env.RevokedAt,
	})
}
