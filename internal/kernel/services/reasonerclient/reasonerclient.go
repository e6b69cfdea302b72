// Package reasonerclient is the thin JSON adapter to the external SIVA
// reasoner: an opaque scoring function the kernel never implements,
// only calls. Grounded on the teacher's infrastructure/ratelimit
// RateLimitedClient wrapping a plain *http.Client, narrowed here to one
// POST-and-decode round trip since the reasoner's own contract is out of
// the kernel's scope.
package reasonerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/pkg/version"
)

// Client implements suitegovernance.Scorer by POSTing the scenario to a
// configured endpoint and decoding its verdict.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}, endpoint: endpoint}
}

type scoreRequest struct {
	ScenarioID string                 `json:"scenario_id"`
	Kind       domain.ScenarioKind    `json:"kind"`
	PersonaID  string                 `json:"persona_id"`
	Input      map[string]interface{} `json:"input"`
}

type scoreResponse struct {
	Outcome         string             `json:"outcome"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	CRSWeighted     float64            `json:"crs_weighted"`
	LatencyMS       int64              `json:"latency_ms"`
}

// Score satisfies suitegovernance.Scorer. It is a suspension point per
// the concurrency model: the caller's context governs cancellation, and
// this call never retries — a reasoner failure surfaces as-is, per the
// "resolution failures surfaced, no silent retry" error strategy.
func (c *Client) Score(ctx context.Context, scenario domain.Scenario) (string, map[string]float64, float64, int64, error) {
	body, err := json.Marshal(scoreRequest{
		ScenarioID: scenario.ScenarioID,
		Kind:       scenario.Kind,
		PersonaID:  scenario.PersonaID,
		Input:      scenario.Input,
	})
	if err != nil {
		return "", nil, 0, 0, fmt.Errorf("encode scenario: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, 0, 0, fmt.Errorf("build reasoner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, 0, 0, fmt.Errorf("call reasoner: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, 0, 0, fmt.Errorf("reasoner returned status %d", resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, 0, 0, fmt.Errorf("decode reasoner response: %w", err)
	}
	return out.Outcome, out.DimensionScores, out.CRSWeighted, out.LatencyMS, nil
}
