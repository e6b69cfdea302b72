package suitegovernance

import "testing"

func TestShuffleScenarios_Deterministic(t *testing.T) {
	ids := []string{"S-1", "S-2", "S-3", "S-4", "S-5"}

	first := ShuffleScenarios(ids, 2)
	second := ShuffleScenarios(ids, 2)

	if len(first) != len(ids) {
		t.Fatalf("length = %d, want %d", len(first), len(ids))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("shuffle not reproducible at index %d: %s != %s", i, first[i], second[i])
		}
	}
}

func TestShuffleScenarios_DiffersAcrossEvaluators(t *testing.T) {
	ids := []string{"S-1", "S-2", "S-3", "S-4", "S-5", "S-6", "S-7"}

	a := ShuffleScenarios(ids, 0)
	b := ShuffleScenarios(ids, 1)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different evaluator indices to produce different orderings")
	}
}

func TestShuffleScenarios_IsAPermutation(t *testing.T) {
	ids := []string{"S-1", "S-2", "S-3", "S-4"}
	shuffled := ShuffleScenarios(ids, 3)

	seen := map[string]bool{}
	for _, id := range shuffled {
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("shuffled output missing %s", id)
		}
	}
	if len(seen) != len(ids) {
		t.Fatalf("expected %d distinct ids, got %d", len(ids), len(seen))
	}
}

func TestShuffleScenarios_EmptyAndSingle(t *testing.T) {
	if out := ShuffleScenarios(nil, 0); len(out) != 0 {
		t.Fatalf("expected empty output for nil input, got %v", out)
	}
	if out := ShuffleScenarios([]string{"only"}, 5); len(out) != 1 || out[0] != "only" {
		t.Fatalf("expected single-element input unchanged, got %v", out)
	}
}
