package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/configkernel"
)

type configHandlers struct {
	kernel *configkernel.Kernel
}

func (h *configHandlers) getNamespace(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	entries, err := h.kernel.GetNamespace(r.Context(), namespace)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, entries)
}

func (h *configHandlers) getKey(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	key := chi.URLParam(r, "key")
	entry, err := h.kernel.Get(r.Context(), namespace, key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, entry)
}

type putConfigRequest struct {
	Value     string                 `json:"value"`
	ValueType domain.ConfigValueType `json:"value_type"`
	UpdatedBy string                 `json:"updated_by"`
}

func (h *configHandlers) putKey(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	key := chi.URLParam(r, "key")

	var req putConfigRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	entry, err := h.kernel.Set(r.Context(), domain.ConfigEntry{
		Namespace: namespace,
		Key:       key,
		Value:     req.Value,
		ValueType: req.ValueType,
		UpdatedBy: req.UpdatedBy,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, entry)
}

func (h *configHandlers) deleteKey(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	key := chi.URLParam(r, "key")
	updatedBy := r.URL.Query().Get("updated_by")

	if err := h.kernel.Delete(r.Context(), namespace, key, updatedBy); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"namespace": namespace, "key": key, "deleted": true})
}
