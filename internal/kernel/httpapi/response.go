// Package httpapi is the kernel's JSON/HTTP transport: a thin chi router
// translating HTTP requests into service calls and *kerrors.KernelError
// into the wire error envelope, grounded on the teacher's own
// internal/app/httpapi package (request decode/writeJSON/writeError
// idiom), generalized from an ad-hoc http.ServeMux to go-chi/chi/v5 for
// path-parameter routing.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeOK wraps data in the spec's success envelope: {success: true, data: …}.
func writeOK(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"success": true, "data": data})
}

// writeErr translates err into the spec's error envelope:
// {success: false, error: <CODE>, message, ...details}. Non-KernelError
// causes (decode failures, etc.) are rendered as 400s with a generic code.
func writeErr(w http.ResponseWriter, err error) {
	ke, ok := kerrors.As(err)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "BAD_REQUEST",
			"message": err.Error(),
		})
		return
	}

	body := map[string]interface{}{
		"success": false,
		"error":   string(ke.Code),
		"message": ke.Message,
	}
	for k, v := range ke.Details {
		body[k] = v
	}
	writeJSON(w, ke.HTTPStatus, body)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
