package reasonerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

func TestScore_DecodesSuccessfulVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ScenarioID != "SC-1" {
			t.Fatalf("scenario_id = %s, want SC-1", req.ScenarioID)
		}
		json.NewEncoder(w).Encode(scoreResponse{
			Outcome:         "PASS",
			DimensionScores: map[string]float64{"fit": 0.9},
			CRSWeighted:     0.8,
			LatencyMS:       120,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	outcome, dims, crs, latency, err := client.Score(context.Background(), domain.Scenario{
		ScenarioID: "SC-1", Kind: domain.ScenarioGolden, PersonaID: "PER-1",
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if outcome != "PASS" || crs != 0.8 || latency != 120 || dims["fit"] != 0.9 {
		t.Fatalf("unexpected result: outcome=%s dims=%v crs=%v latency=%v", outcome, dims, crs, latency)
	}
}

func TestScore_ReturnsErrorOnNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	if _, _, _, _, err := client.Score(context.Background(), domain.Scenario{ScenarioID: "SC-1"}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
