package vhist

import "github.com/causalgo/tomomc/internal/errs"

// Histogram accumulates counts (or weights) of a scalar value into
// fixed-width bins, plus an off-chart tally for values outside [Min, Max).
type Histogram struct {
	Params    Params
	Bins      []float64
	OffChart  float64
}

// New returns an empty Histogram for the given parameters.
func New(p Params) (*Histogram, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Histogram{Params: p, Bins: make([]float64, p.NumBins)}, nil
}

// Record adds weight w (default 1) to the bin containing v, or to OffChart
// if v lies outside [Min, Max). Returns the bin index, or -1 if off-chart.
func (h *Histogram) Record(v float64, w float64) int {
	idx, err := h.Params.BinIndex(v)
	if err != nil {
		h.OffChart += w
		return -1
	}
	h.Bins[idx] += w
	return idx
}

// Add bulk-adds bin counts (and optionally off-chart) to this histogram.
// The length of bins must match NumBins.
func (h *Histogram) Add(bins []float64, offChart float64) error {
	if len(bins) != len(h.Bins) {
		return errs.New(errs.InvalidArgument, "Add: got %d bins, want %d", len(bins), len(h.Bins))
	}
	for i, c := range bins {
		h.Bins[i] += c
	}
	h.OffChart += offChart
	return nil
}

// Load replaces the contents of this histogram with bins/offChart.
func (h *Histogram) Load(bins []float64, offChart float64) error {
	if len(bins) != len(h.Bins) {
		return errs.New(errs.InvalidArgument, "Load: got %d bins, want %d", len(bins), len(h.Bins))
	}
	copy(h.Bins, bins)
	h.OffChart = offChart
	return nil
}

// TotalCounts returns the sum of all bins plus OffChart.
func (h *Histogram) TotalCounts() float64 {
	return sum(h.Bins) + h.OffChart
}

// Normalization returns OffChart + binWidth * sum(bins), the quantity that
// Normalized() divides by so that the resulting histogram integrates to 1
// over its domain (off-chart mass included as a point mass).
func (h *Histogram) Normalization() float64 {
	return h.OffChart + h.Params.BinWidth()*sum(h.Bins)
}

// Normalized returns the bin values divided by Normalization().
func (h *Histogram) Normalized() []float64 {
	return scale(h.Bins, h.Normalization())
}

// NormalizedCounts returns the bin values divided by TotalCounts().
func (h *Histogram) NormalizedCounts() []float64 {
	return scale(h.Bins, h.TotalCounts())
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func scale(xs []float64, denom float64) []float64 {
	out := make([]float64, len(xs))
	if denom == 0 {
		return out
	}
	for i, x := range xs {
		out[i] = x / denom
	}
	return out
}
