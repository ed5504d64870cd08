package vhist

import (
	"math"
	"testing"

	"github.com/causalgo/tomomc/internal/errs"
)

func TestParamsBinIndex(t *testing.T) {
	p := Params{Min: 0, Max: 1, NumBins: 10}

	tests := []struct {
		name    string
		v       float64
		wantIdx int
		wantErr bool
	}{
		{"lower edge", 0.0, 0, false},
		{"mid bin", 0.25, 2, false},
		{"just under max", 0.999, 9, false},
		{"at max is out of range", 1.0, -1, true},
		{"negative is out of range", -0.0001, -1, true},
		{"NaN is out of range", math.NaN(), -1, true},
		{"+Inf is out of range", math.Inf(1), -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := p.BinIndex(tt.v)
			if tt.wantErr {
				if err == nil || !errs.Is(err, errs.OutOfRange) {
					t.Fatalf("expected OutOfRange error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if idx != tt.wantIdx {
				t.Errorf("BinIndex(%v) = %d, want %d", tt.v, idx, tt.wantIdx)
			}
			if v := p.BinLowerValue(idx); v > tt.v {
				t.Errorf("BinLowerValue(%d)=%v should be <= %v", idx, v, tt.v)
			}
			if v := p.BinUpperValue(idx); v <= tt.v {
				t.Errorf("BinUpperValue(%d)=%v should be > %v", idx, v, tt.v)
			}
		})
	}
}

// Scenario B: histogram out-of-range behavior.
func TestHistogramOutOfRange(t *testing.T) {
	h, err := New(Params{Min: 0, Max: 1, NumBins: 10})
	if err != nil {
		t.Fatal(err)
	}

	if idx := h.Record(1.0, 1); idx != -1 {
		t.Errorf("Record(1.0) = %d, want -1", idx)
	}
	if h.OffChart != 1 {
		t.Errorf("OffChart after one out-of-range record = %v, want 1", h.OffChart)
	}

	if idx := h.Record(-1e-9, 1); idx != -1 {
		t.Errorf("Record(-eps) = %d, want -1", idx)
	}
	if h.OffChart != 2 {
		t.Errorf("OffChart after two out-of-range records = %v, want 2", h.OffChart)
	}
}

// Histogram conservation: totalCounts equals sum of all record/add inputs.
func TestHistogramConservation(t *testing.T) {
	h, err := New(Params{Min: 0, Max: 10, NumBins: 5})
	if err != nil {
		t.Fatal(err)
	}

	values := []float64{0.5, 1.5, 9.9, -1, 10, 4.2, 4.2}
	var expectedTotal float64
	for _, v := range values {
		h.Record(v, 1)
		expectedTotal++
	}

	if got := h.TotalCounts(); got != expectedTotal {
		t.Errorf("TotalCounts() = %v, want %v", got, expectedTotal)
	}

	if err := h.Add([]float64{1, 1, 1, 1, 1}, 3); err != nil {
		t.Fatal(err)
	}
	expectedTotal += 5 + 3
	if got := h.TotalCounts(); got != expectedTotal {
		t.Errorf("TotalCounts() after Add = %v, want %v", got, expectedTotal)
	}
}

func TestHistogramAddDimensionMismatch(t *testing.T) {
	h, _ := New(Params{Min: 0, Max: 1, NumBins: 4})
	if err := h.Add([]float64{1, 2}, 0); err == nil || !errs.Is(err, errs.InvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

// Scenario C: AveragedHistogram, no error bars.
func TestAveragedHistogramNoErrorBars(t *testing.T) {
	p := Params{Min: 0, Max: 1, NumBins: 4}
	inputs := [][]float64{
		{4, 3, 2, 1},
		{2, 3, 4, 1},
		{3, 3, 3, 1},
	}

	avg, err := NewAveraged(p)
	if err != nil {
		t.Fatal(err)
	}
	for _, bins := range inputs {
		h, _ := New(p)
		_ = h.Load(bins, 0)
		if err := avg.AddHistogram(h); err != nil {
			t.Fatal(err)
		}
	}
	if err := avg.Finalize(); err != nil {
		t.Fatal(err)
	}
	res, err := avg.Result()
	if err != nil {
		t.Fatal(err)
	}

	wantBins := []float64{3, 3, 3, 1}
	wantDelta := []float64{1, 0, 1, 0}
	for i := range wantBins {
		if math.Abs(res.Bins[i]-wantBins[i]) > 1e-9 {
			t.Errorf("bin[%d] = %v, want %v", i, res.Bins[i], wantBins[i])
		}
		if math.Abs(res.Delta[i]-wantDelta[i]) > 1e-9 {
			t.Errorf("delta[%d] = %v, want %v", i, res.Delta[i], wantDelta[i])
		}
	}
}

// AveragedHistogram idempotence: feeding the same histogram N times.
func TestAveragedHistogramIdempotence(t *testing.T) {
	p := Params{Min: 0, Max: 1, NumBins: 3}
	h, _ := New(p)
	_ = h.Load([]float64{5, 7, 2}, 1)

	avg, _ := NewAveraged(p)
	const n = 6
	for i := 0; i < n; i++ {
		if err := avg.AddHistogram(h); err != nil {
			t.Fatal(err)
		}
	}
	if err := avg.Finalize(); err != nil {
		t.Fatal(err)
	}
	res, _ := avg.Result()

	for i, b := range h.Bins {
		if res.Bins[i] != b {
			t.Errorf("bin[%d] = %v, want %v", i, res.Bins[i], b)
		}
	}
	for i, d := range res.Delta {
		if d != 0 {
			t.Errorf("delta[%d] = %v, want 0", i, d)
		}
	}
}

// AveragedHistogram idempotence, error-bar variant: delta = h.delta/sqrt(N).
func TestAveragedHistogramWithErrorBarsIdempotence(t *testing.T) {
	p := Params{Min: 0, Max: 1, NumBins: 2}
	h, _ := NewWithErrorBars(p)
	_ = h.LoadWithErrors([]float64{10, 20}, []float64{0.5, 0.25}, 0)

	avg, _ := NewAveraged(p)
	const n = 4
	for i := 0; i < n; i++ {
		if err := avg.AddHistogram(h); err != nil {
			t.Fatal(err)
		}
	}
	if err := avg.Finalize(); err != nil {
		t.Fatal(err)
	}
	res, _ := avg.Result()

	wantDelta := []float64{0.5 / math.Sqrt(n), 0.25 / math.Sqrt(n)}
	for i, want := range wantDelta {
		if math.Abs(res.Delta[i]-want) > 1e-12 {
			t.Errorf("delta[%d] = %v, want %v", i, res.Delta[i], want)
		}
	}
}

func TestAveragedHistogramResultBeforeFinalize(t *testing.T) {
	avg, _ := NewAveraged(Params{Min: 0, Max: 1, NumBins: 2})
	if _, err := avg.Result(); err == nil || !errs.Is(err, errs.OutOfRange) {
		t.Fatalf("expected OutOfRange, got %v", err)
	}
}

func TestAveragedHistogramMixedModesRejected(t *testing.T) {
	p := Params{Min: 0, Max: 1, NumBins: 2}
	avg, _ := NewAveraged(p)

	h1, _ := New(p)
	_ = h1.Load([]float64{1, 2}, 0)
	if err := avg.AddHistogram(h1); err != nil {
		t.Fatal(err)
	}

	h2, _ := NewWithErrorBars(p)
	_ = h2.LoadWithErrors([]float64{1, 2}, []float64{0.1, 0.1}, 0)
	if err := avg.AddHistogram(h2); err == nil || !errs.Is(err, errs.InvalidArgument) {
		t.Fatalf("expected InvalidArgument for mixed modes, got %v", err)
	}
}

func TestAveragedHistogramAddAfterFinalize(t *testing.T) {
	p := Params{Min: 0, Max: 1, NumBins: 2}
	avg, _ := NewAveraged(p)
	h, _ := New(p)
	_ = h.Load([]float64{1, 1}, 0)
	_ = avg.AddHistogram(h)
	_ = avg.Finalize()

	if err := avg.AddHistogram(h); err == nil || !errs.Is(err, errs.OutOfRange) {
		t.Fatalf("expected OutOfRange after Finalize, got %v", err)
	}

	avg.Reset()
	if err := avg.AddHistogram(h); err != nil {
		t.Fatalf("AddHistogram after Reset should succeed: %v", err)
	}
}
