package vhist

import "github.com/causalgo/tomomc/internal/errs"

// WithErrorBars is a Histogram plus a per-bin standard error Delta. Unlike
// Histogram it is not accumulated sample-by-sample: its contents come from
// an AveragedHistogram finalize(), or from a binning-analysis error
// estimate. Record/Add are intentionally unavailable on this type.
type WithErrorBars struct {
	Histogram
	Delta []float64
}

// NewWithErrorBars returns an empty error-barred histogram.
func NewWithErrorBars(p Params) (*WithErrorBars, error) {
	h, err := New(p)
	if err != nil {
		return nil, err
	}
	return &WithErrorBars{Histogram: *h, Delta: make([]float64, p.NumBins)}, nil
}

// ErrorBar returns Delta[i].
func (h *WithErrorBars) ErrorBar(i int) float64 {
	return h.Delta[i]
}

// Record is disabled on WithErrorBars: its bins come from an aggregator
// (Averaged or a binning-analysis error estimate), never from live samples.
// It shadows the embedded Histogram.Record, which would otherwise be
// promoted and callable here.
func (h *WithErrorBars) Record(float64, float64) error {
	return errs.New(errs.InvalidArgument, "Record is disabled on WithErrorBars; use an aggregator")
}

// Add is disabled on WithErrorBars for the same reason as Record; use
// LoadWithErrors to set bins and error bars together.
func (h *WithErrorBars) Add([]float64, float64) error {
	return errs.New(errs.InvalidArgument, "Add is disabled on WithErrorBars; use LoadWithErrors")
}

// LoadWithErrors replaces bins, off-chart and error bars at once.
func (h *WithErrorBars) LoadWithErrors(bins, delta []float64, offChart float64) error {
	if len(delta) != len(h.Bins) {
		return errs.New(errs.InvalidArgument, "LoadWithErrors: got %d deltas, want %d", len(delta), len(h.Bins))
	}
	if err := h.Histogram.Load(bins, offChart); err != nil {
		return err
	}
	copy(h.Delta, delta)
	return nil
}
