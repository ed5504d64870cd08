package diagnostics

import (
	"math"
	"testing"
)

func TestEntropyUniform(t *testing.T) {
	p := []float64{0.25, 0.25, 0.25, 0.25}
	h := Entropy(p)
	if math.Abs(h-2.0) > 1e-9 {
		t.Errorf("Entropy(uniform over 4) = %v, want 2.0", h)
	}
	if perp := Perplexity(p); math.Abs(perp-4.0) > 1e-9 {
		t.Errorf("Perplexity = %v, want 4.0", perp)
	}
}

func TestEntropyDegenerate(t *testing.T) {
	p := []float64{1, 0, 0, 0}
	if h := Entropy(p); h != 0 {
		t.Errorf("Entropy(degenerate) = %v, want 0", h)
	}
}

func TestLog2SafeHandlesEdgeCases(t *testing.T) {
	cases := []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, c := range cases {
		if v := Log2Safe(c); v != 0 {
			t.Errorf("Log2Safe(%v) = %v, want 0", c, v)
		}
	}
}

func TestGelmanRubinPSRFAgreement(t *testing.T) {
	means := [][]float64{
		{0.50, 0.50},
		{0.50, 0.50},
		{0.50, 0.50},
	}
	se := [][]float64{
		{0.01, 0.01},
		{0.01, 0.01},
		{0.01, 0.01},
	}
	n := []int{1000, 1000, 1000}
	psrf, err := GelmanRubinPSRF(means, se, n)
	if err != nil {
		t.Fatal(err)
	}
	// With no between-task spread, PSRF reduces to sqrt((n-1)/n).
	want := math.Sqrt(999.0 / 1000.0)
	for i, v := range psrf {
		if math.Abs(v-want) > 1e-6 {
			t.Errorf("psrf[%d] = %v, want %v for identical chains", i, v, want)
		}
	}
}

func TestGelmanRubinPSRFDisagreement(t *testing.T) {
	means := [][]float64{
		{0.1, 0.9},
		{0.9, 0.1},
	}
	se := [][]float64{
		{0.001, 0.001},
		{0.001, 0.001},
	}
	n := []int{1000, 1000}
	psrf, err := GelmanRubinPSRF(means, se, n)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range psrf {
		if v <= 1.5 {
			t.Errorf("psrf[%d] = %v, want well above 1 for disagreeing chains", i, v)
		}
	}
}

func TestGelmanRubinPSRFValidation(t *testing.T) {
	if _, err := GelmanRubinPSRF([][]float64{{1}}, [][]float64{{1}}, []int{10}); err == nil {
		t.Error("expected error for < 2 tasks")
	}
	if _, err := GelmanRubinPSRF(
		[][]float64{{1, 2}, {1}},
		[][]float64{{1, 2}, {1, 2}},
		[]int{10, 10},
	); err == nil {
		t.Error("expected error for mismatched bin counts")
	}
}
