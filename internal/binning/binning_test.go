package binning

import (
	"math"
	"math/rand"
	"testing"

	"github.com/causalgo/tomomc/internal/errs"
)

// Scenario D: BinningAnalysis on a constant stream.
func TestAnalysisConstantStream(t *testing.T) {
	a, err := New(1, 8)
	if err != nil {
		t.Fatal(err)
	}
	const n = 1 << 10
	for i := 0; i < n; i++ {
		if err := a.ProcessNewValues([]float64{0.5}); err != nil {
			t.Fatal(err)
		}
	}

	levels, err := a.CalcErrorLevels([]float64{0.5})
	if err != nil {
		t.Fatal(err)
	}
	for l, e := range levels[0] {
		if e != 0 {
			t.Errorf("level %d: error = %v, want 0", l, e)
		}
	}

	statuses := DetermineErrorConvergence(levels)
	if statuses[0] != Converged {
		t.Errorf("status = %v, want Converged", statuses[0])
	}
}

// BinningAnalysis on i.i.d. input: error at the deepest level should track
// the standard error of the mean, sigma/sqrt(n) with n raw samples, within
// statistical fluctuation, and the level curve should be flat (converged).
func TestAnalysisIIDConverges(t *testing.T) {
	const numLevels = 6
	const blocksAtTop = 200
	n := blocksAtTop << numLevels

	rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data
	a, err := New(1, numLevels)
	if err != nil {
		t.Fatal(err)
	}

	var sum float64
	for i := 0; i < n; i++ {
		v := rng.NormFloat64()
		sum += v
		if err := a.ProcessNewValues([]float64{v}); err != nil {
			t.Fatal(err)
		}
	}
	mean := []float64{sum / float64(n)}

	levels, err := a.CalcErrorLevels(mean)
	if err != nil {
		t.Fatal(err)
	}

	wantSE := 1.0 / math.Sqrt(float64(n))
	gotSE := levels[0][numLevels]
	if math.Abs(gotSE-wantSE)/wantSE > 0.35 {
		t.Errorf("epsilon_L = %v, want close to %v", gotSE, wantSE)
	}

	statuses := DetermineErrorConvergence(levels)
	if statuses[0] == NotConverged {
		t.Errorf("status = %v, want Converged or Unknown for i.i.d. input", statuses[0])
	}
}

func TestAnalysisLowSampleLevelsAreInfinite(t *testing.T) {
	a, _ := New(1, 8)
	for i := 0; i < 3; i++ {
		_ = a.ProcessNewValues([]float64{1.0})
	}
	levels, err := a.CalcErrorLevels([]float64{1.0})
	if err != nil {
		t.Fatal(err)
	}
	// Level 8 has far fewer than 2 samples after only 3 raw samples.
	if !math.IsInf(levels[0][8], 1) {
		t.Errorf("level 8 error = %v, want +Inf", levels[0][8])
	}
}

func TestAnalysisDimensionMismatch(t *testing.T) {
	a, _ := New(2, 4)
	if err := a.ProcessNewValues([]float64{1.0}); err == nil || !errs.Is(err, errs.InvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestNewInvalidParams(t *testing.T) {
	if _, err := New(0, 4); err == nil {
		t.Error("expected error for numTrack=0")
	}
	if _, err := New(2, 0); err == nil {
		t.Error("expected error for numLevels=0")
	}
}
