package httpapi

import (
	"net/http"
	"strconv"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/core"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/auditlog"
)

type auditHandlers struct {
	log *auditlog.Log
}

func (h *auditHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit := core.ClampLimit(parseLimit(r), core.DefaultListLimit, core.MaxListLimit)

	q := r.URL.Query()
	switch {
	case q.Get("actor_id") != "":
		entries, err := h.log.ByActor(r.Context(), q.Get("actor_id"), limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, http.StatusOK, entries)
	case q.Get("target_type") != "" && q.Get("target_id") != "":
		entries, err := h.log.ByTarget(r.Context(), q.Get("target_type"), q.Get("target_id"), limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, http.StatusOK, entries)
	case q.Get("enterprise_id") != "":
		entries, err := h.log.ByEnterprise(r.Context(), q.Get("enterprise_id"), limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, http.StatusOK, entries)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST",
			"message": "one of actor_id, (target_type and target_id), or enterprise_id is required",
		})
	}
}

func parseLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return core.DefaultListLimit
}
