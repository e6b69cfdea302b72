package suitegovernance

import "math"

// ShuffleScenarios returns a per-evaluator deterministic ordering of
// scenario ids. The Fisher-Yates swap index at step j is
// floor((((evaluatorIndex+1)*12345 + j)*9301 + 49297) mod 233280 / 233280 * (j+1)),
// giving an independent, reproducible order from (evaluatorIndex,
// len(scenarioIDs)) alone — no external RNG seed is persisted.
func ShuffleScenarios(scenarioIDs []string, evaluatorIndex int) []string {
	out := make([]string, len(scenarioIDs))
	copy(out, scenarioIDs)

	for j := len(out) - 1; j > 0; j-- {
		swap := pseudoRandomIndex(evaluatorIndex, j)
		out[j], out[swap] = out[swap], out[j]
	}
	return out
}

func pseudoRandomIndex(evaluatorIndex, j int) int {
	raw := (float64((evaluatorIndex+1)*12345+j)*9301 + 49297)
	frac := math.Mod(raw, 233280) / 233280
	return int(math.Floor(frac * float64(j+1)))
}
