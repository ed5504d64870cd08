// Package vhist provides fixed-range, equal-width histogram primitives for
// accumulating a scalar figure of merit sampled from a Metropolis-Hastings
// random walk, plus an averaging aggregator over several such histograms.
package vhist

import (
	"math"

	"github.com/causalgo/tomomc/internal/errs"
)

// Params describes a fixed-range, equal-width binning of [Min, Max) into
// NumBins bins. Values outside the range are tallied separately.
type Params struct {
	Min     float64
	Max     float64
	NumBins int
}

// Validate checks the invariants Min < Max and NumBins >= 1.
func (p Params) Validate() error {
	if p.NumBins < 1 {
		return errs.New(errs.InvalidArgument, "num_bins must be >= 1, got %d", p.NumBins)
	}
	if !(p.Min < p.Max) {
		return errs.New(errs.InvalidArgument, "min (%g) must be < max (%g)", p.Min, p.Max)
	}
	return nil
}

// BinWidth returns (Max-Min)/NumBins.
func (p Params) BinWidth() float64 {
	return (p.Max - p.Min) / float64(p.NumBins)
}

// BinLowerValue returns the lower edge of bin i.
func (p Params) BinLowerValue(i int) float64 {
	return p.Min + float64(i)*p.BinWidth()
}

// BinUpperValue returns the upper edge of bin i.
func (p Params) BinUpperValue(i int) float64 {
	return p.Min + float64(i+1)*p.BinWidth()
}

// BinCenterValue returns the midpoint of bin i.
func (p Params) BinCenterValue(i int) float64 {
	return p.BinLowerValue(i) + p.BinWidth()/2
}

// IsWithinBounds reports whether v lies in [Min, Max).
func (p Params) IsWithinBounds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= p.Min && v < p.Max
}

// BinIndex returns the bin index of v, or an OutOfRange error if v is not
// finite or not within [Min, Max).
func (p Params) BinIndex(v float64) (int, error) {
	if !p.IsWithinBounds(v) {
		return -1, errs.New(errs.OutOfRange, "value %g out of range [%g, %g)", v, p.Min, p.Max)
	}
	idx := int((v - p.Min) * float64(p.NumBins) / (p.Max - p.Min))
	if idx >= p.NumBins {
		idx = p.NumBins - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx, nil
}
