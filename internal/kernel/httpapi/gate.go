package httpapi

import (
	"net/http"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/runtimegate"
)

type gateHandlers struct {
	gate *runtimegate.Gate
}

type gateCheckRequest struct {
	Source      string                 `json:"source"`
	Endpoint    string                 `json:"endpoint"`
	Method      string                 `json:"method"`
	TenantID    string                 `json:"tenant_id"`
	WorkspaceID string                 `json:"workspace_id"`
	UserID      string                 `json:"user_id"`
	EnvelopeID  string                 `json:"envelope_id,omitempty"`
	SHA256Hash  string                 `json:"sha256_hash,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

func (h *gateHandlers) check(w http.ResponseWriter, r *http.Request) {
	var req gateCheckRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	decision, err := h.gate.Admit(r.Context(), runtimegate.Claim{
		Source:      req.Source,
		Endpoint:    req.Endpoint,
		Method:      req.Method,
		TenantID:    req.TenantID,
		WorkspaceID: req.WorkspaceID,
		UserID:      req.UserID,
		EnvelopeID:  req.EnvelopeID,
		SHA256Hash:  req.SHA256Hash,
		Context:     req.Context,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	if !decision.Admitted {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"success": false,
			"error":   "RUNTIME_GATE_VIOLATION",
			"message": "envelope claim was not admitted",
			"violation": decision.Code,
		})
		return
	}

	writeOK(w, http.StatusOK, map[string]interface{}{
		"admitted":    true,
		"envelope_id": decision.Envelope.EnvelopeID,
	})
}
