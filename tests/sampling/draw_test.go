package sampling_test

import (
	"reflect"
	"testing"

	"github.com/colefield/sift/internal/sampling"
)

func conf(f float64) *float64 { return &f }

func TestStratify(t *testing.T) {
	tests := []struct {
		name      string
		candidate sampling.Candidate
		want      string
	}{
		{"unclassified", sampling.Candidate{EmailID: 1}, sampling.StratumUnclassified},
		{"below threshold", sampling.Candidate{EmailID: 2, Confidence: conf(0.3)}, sampling.StratumLow},
		{"just below threshold", sampling.Candidate{EmailID: 3, Confidence: conf(0.6499)}, sampling.StratumLow},
		{"at threshold", sampling.Candidate{EmailID: 4, Confidence: conf(0.65)}, sampling.StratumHigh},
		{"above threshold", sampling.Candidate{EmailID: 5, Confidence: conf(0.9)}, sampling.StratumHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sampling.Stratify(tt.candidate, 0.65); got != tt.want {
				t.Errorf("Stratify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func testCandidates() []sampling.Candidate {
	// 10 low, 6 high, 4 unclassified.
	candidates := make([]sampling.Candidate, 0, 20)
	for i := int64(1); i <= 10; i++ {
		candidates = append(candidates, sampling.Candidate{EmailID: i, Confidence: conf(0.2)})
	}
	for i := int64(11); i <= 16; i++ {
		candidates = append(candidates, sampling.Candidate{EmailID: i, Confidence: conf(0.9)})
	}
	for i := int64(17); i <= 20; i++ {
		candidates = append(candidates, sampling.Candidate{EmailID: i})
	}
	return candidates
}

func countByStratum(drawn []sampling.Drawn) map[string]int {
	counts := map[string]int{}
	for _, d := range drawn {
		counts[d.Stratum]++
	}
	return counts
}

func TestDrawProportionalAllocation(t *testing.T) {
	drawn := sampling.Draw(testCandidates(), 10, 42, 0.65)

	if len(drawn) != 10 {
		t.Fatalf("drawn = %d, want 10", len(drawn))
	}

	counts := countByStratum(drawn)
	if counts[sampling.StratumLow] != 5 {
		t.Errorf("low = %d, want 5", counts[sampling.StratumLow])
	}
	if counts[sampling.StratumHigh] != 3 {
		t.Errorf("high = %d, want 3", counts[sampling.StratumHigh])
	}
	if counts[sampling.StratumUnclassified] != 2 {
		t.Errorf("unclassified = %d, want 2", counts[sampling.StratumUnclassified])
	}
}

func TestDrawRemainderDistribution(t *testing.T) {
	// size 7 of 20: quotas floor to 3/2/1 = 6, remainder 1 goes to low.
	drawn := sampling.Draw(testCandidates(), 7, 1, 0.65)

	if len(drawn) != 7 {
		t.Fatalf("drawn = %d, want 7", len(drawn))
	}

	counts := countByStratum(drawn)
	if counts[sampling.StratumLow] != 4 {
		t.Errorf("low = %d, want 4 (floor 3 plus remainder)", counts[sampling.StratumLow])
	}
}

func TestDrawDeterministic(t *testing.T) {
	first := sampling.Draw(testCandidates(), 8, 1234, 0.65)

	for i := 0; i < 5; i++ {
		again := sampling.Draw(testCandidates(), 8, 1234, 0.65)
		if !reflect.DeepEqual(first, again) {
			t.Fatal("same seed must reproduce the same draw")
		}
	}
}

func TestDrawSeedChangesSelection(t *testing.T) {
	a := sampling.Draw(testCandidates(), 8, 1, 0.65)
	b := sampling.Draw(testCandidates(), 8, 2, 0.65)

	if reflect.DeepEqual(a, b) {
		t.Error("different seeds should produce different draws")
	}
}

func TestDrawNoDuplicates(t *testing.T) {
	drawn := sampling.Draw(testCandidates(), 15, 7, 0.65)

	seen := map[int64]bool{}
	for _, d := range drawn {
		if seen[d.EmailID] {
			t.Fatalf("email %d drawn twice", d.EmailID)
		}
		seen[d.EmailID] = true
	}
}

func TestDrawSizeExceedsPopulation(t *testing.T) {
	drawn := sampling.Draw(testCandidates(), 100, 9, 0.65)

	if len(drawn) != 20 {
		t.Errorf("drawn = %d, want all 20", len(drawn))
	}
}

func TestDrawStratumAssignmentsMatchConfidence(t *testing.T) {
	drawn := sampling.Draw(testCandidates(), 20, 3, 0.65)

	for _, d := range drawn {
		switch {
		case d.EmailID <= 10 && d.Stratum != sampling.StratumLow:
			t.Errorf("email %d stratum = %q, want low", d.EmailID, d.Stratum)
		case d.EmailID > 10 && d.EmailID <= 16 && d.Stratum != sampling.StratumHigh:
			t.Errorf("email %d stratum = %q, want high", d.EmailID, d.Stratum)
		case d.EmailID > 16 && d.Stratum != sampling.StratumUnclassified:
			t.Errorf("email %d stratum = %q, want unclassified", d.EmailID, d.Stratum)
		}
	}
}

func TestDrawEmptyInputs(t *testing.T) {
	if got := sampling.Draw(nil, 10, 1, 0.65); len(got) != 0 {
		t.Errorf("nil candidates: got %v", got)
	}
	if got := sampling.Draw(testCandidates(), 0, 1, 0.65); len(got) != 0 {
		t.Errorf("zero size: got %v", got)
	}
	if got := sampling.Draw(testCandidates(), -3, 1, 0.65); len(got) != 0 {
		t.Errorf("negative size: got %v", got)
	}
}
