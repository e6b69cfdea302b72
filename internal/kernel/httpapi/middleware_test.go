package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/uaesivakumar/authority-kernel/pkg/tracing"
)

type spyTracer struct {
	started []string
	lastErr error
}

func (s *spyTracer) StartSpan(ctx context.Context, name string, _ map[string]string) (context.Context, func(error)) {
	s.started = append(s.started, name)
	return ctx, func(err error) { s.lastErr = err }
}

func TestTrace_RecordsSpanNameAndSuccess(t *testing.T) {
	spy := &spyTracer{}
	handler := Trace(spy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/suites", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(spy.started) != 1 || spy.started[0] != "GET /suites" {
		t.Fatalf("unexpected spans: %v", spy.started)
	}
	if spy.lastErr != nil {
		t.Fatalf("expected nil error on 200, got %v", spy.lastErr)
	}
}

func TestTrace_RecordsErrorOnServerFailure(t *testing.T) {
	spy := &spyTracer{}
	handler := Trace(spy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/suites", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if spy.lastErr == nil {
		t.Fatal("expected error recorded on 500 response")
	}
}

func TestTrace_NoopTracerIsSafeDefault(t *testing.T) {
	handler := Trace(tracing.NoopTracer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/suites", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
