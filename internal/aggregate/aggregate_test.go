package aggregate

import (
	"math"
	"testing"

	"github.com/causalgo/tomomc/internal/binning"
	"github.com/causalgo/tomomc/internal/dispatch"
	"github.com/causalgo/tomomc/internal/mhwalk"
	"github.com/causalgo/tomomc/internal/valuehist"
	"github.com/causalgo/tomomc/internal/vhist"
)

func wbResult(bins []float64, delta []float64, p vhist.Params) *valuehist.WithBinningResult {
	h, _ := vhist.NewWithErrorBars(p)
	_ = h.LoadWithErrors(bins, delta, 0)
	statuses := make([]binning.Status, len(bins))
	for i := range statuses {
		statuses[i] = binning.Converged
	}
	return &valuehist.WithBinningResult{Histogram: h, ConvergedStatus: statuses}
}

func TestAggregateOrderIndependence(t *testing.T) {
	p := vhist.Params{Min: 0, Max: 1, NumBins: 2}
	inputs := []*valuehist.WithBinningResult{
		wbResult([]float64{0.3, 0.7}, []float64{0.02, 0.02}, p),
		wbResult([]float64{0.4, 0.6}, []float64{0.03, 0.03}, p),
		wbResult([]float64{0.35, 0.65}, []float64{0.01, 0.01}, p),
	}

	run := func(order []int) *Result {
		agg, err := New(p)
		if err != nil {
			t.Fatal(err)
		}
		for i, idx := range order {
			if err := agg.Add(i, dispatch.StatusOK, mhwalk.Summary{}, inputs[idx]); err != nil {
				t.Fatal(err)
			}
		}
		res, err := agg.Finalize()
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	forward := run([]int{0, 1, 2})
	reverse := run([]int{2, 1, 0})

	for i := range forward.Final.Bins {
		if math.Abs(forward.Final.Bins[i]-reverse.Final.Bins[i]) > 1e-12 {
			t.Errorf("bin[%d] forward=%v reverse=%v, want equal", i, forward.Final.Bins[i], reverse.Final.Bins[i])
		}
		if math.Abs(forward.Final.Delta[i]-reverse.Final.Delta[i]) > 1e-12 {
			t.Errorf("delta[%d] forward=%v reverse=%v, want equal", i, forward.Final.Delta[i], reverse.Final.Delta[i])
		}
	}
}

func TestAggregateSkipsNonOKTasks(t *testing.T) {
	p := vhist.Params{Min: 0, Max: 1, NumBins: 2}
	agg, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := agg.Add(0, dispatch.StatusOK, mhwalk.Summary{}, wbResult([]float64{1, 1}, []float64{0, 0}, p)); err != nil {
		t.Fatal(err)
	}
	if err := agg.Add(1, dispatch.StatusInterrupted, mhwalk.Summary{}, nil); err != nil {
		t.Fatal(err)
	}
	res, err := agg.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.PerTask) != 2 {
		t.Fatalf("PerTask has %d entries, want 2", len(res.PerTask))
	}
	if res.Final.Bins[0] != 1 {
		t.Errorf("interrupted task should not contribute to Final: bins[0] = %v", res.Final.Bins[0])
	}
}

func TestAggregateFinalVsSimpleDiffer(t *testing.T) {
	p := vhist.Params{Min: 0, Max: 1, NumBins: 2}
	agg, _ := New(p)
	// Wide per-task variance but tight per-task (binning) error bars:
	// Final (quadrature of tiny per-task bars) should end up much smaller
	// than Simple (inter-task standard deviation).
	_ = agg.Add(0, dispatch.StatusOK, mhwalk.Summary{}, wbResult([]float64{0.1, 0.9}, []float64{0.001, 0.001}, p))
	_ = agg.Add(1, dispatch.StatusOK, mhwalk.Summary{}, wbResult([]float64{0.9, 0.1}, []float64{0.001, 0.001}, p))
	res, err := agg.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if res.Simple.Delta[0] <= res.Final.Delta[0] {
		t.Errorf("expected Simple.Delta (%v) > Final.Delta (%v) for wildly disagreeing tasks", res.Simple.Delta[0], res.Final.Delta[0])
	}
}

func TestAggregateNoSuccessfulTasks(t *testing.T) {
	p := vhist.Params{Min: 0, Max: 1, NumBins: 2}
	agg, _ := New(p)
	_ = agg.Add(0, dispatch.StatusError, mhwalk.Summary{}, nil)
	if _, err := agg.Finalize(); err == nil {
		t.Error("expected error finalizing with zero successful tasks")
	}
}
