package vhist

import (
	"math"

	"github.com/causalgo/tomomc/internal/errs"
)

// Source is anything that exposes bin counts and an off-chart tally, the
// minimum an Averaged accumulator needs to combine histograms.
type Source interface {
	BinValues() []float64
	OffChartValue() float64
}

// ErrorSource is a Source that also carries per-bin error bars.
type ErrorSource interface {
	Source
	DeltaValues() []float64
}

// BinValues implements Source for Histogram.
func (h *Histogram) BinValues() []float64 { return h.Bins }

// OffChartValue implements Source for Histogram.
func (h *Histogram) OffChartValue() float64 { return h.OffChart }

// DeltaValues implements ErrorSource for WithErrorBars.
func (h *WithErrorBars) DeltaValues() []float64 { return h.Delta }

// Averaged accumulates N input histograms of a uniform kind (all with error
// bars, or all without) over the same Params, and on Finalize produces a
// WithErrorBars holding the per-bin mean and an error bar computed per the
// rule appropriate to the accumulated kind: the unbiased sample standard
// deviation across inputs when inputs carry no error bars of their own, or
// the quadrature combination of each input's own error bar when they do.
type Averaged struct {
	params Params

	n            int
	modeSet      bool
	hasErrorBars bool

	sumBins     []float64
	sumSqBins   []float64 // no-error-bar mode only
	sumDeltaSq  []float64 // error-bar mode only
	sumOffChart float64

	finalized bool
	result    WithErrorBars
}

// NewAveraged returns an empty accumulator for the given Params.
func NewAveraged(p Params) (*Averaged, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Averaged{
		params:    p,
		sumBins:   make([]float64, p.NumBins),
		sumSqBins: make([]float64, p.NumBins),
	}, nil
}

// AddHistogram accumulates one input histogram. The first call establishes
// whether this accumulator runs in error-bar or no-error-bar mode; every
// subsequent call must agree. Calling after Finalize is an error (reset
// first via Reset).
func (a *Averaged) AddHistogram(h Source) error {
	if a.finalized {
		return errs.New(errs.OutOfRange, "AddHistogram called after Finalize; call Reset first")
	}
	bins := h.BinValues()
	if len(bins) != a.params.NumBins {
		return errs.New(errs.InvalidArgument, "AddHistogram: got %d bins, want %d", len(bins), a.params.NumBins)
	}

	eb, isErrorSource := h.(ErrorSource)
	if !a.modeSet {
		a.modeSet = true
		a.hasErrorBars = isErrorSource
		if a.hasErrorBars {
			a.sumDeltaSq = make([]float64, a.params.NumBins)
		}
	} else if a.hasErrorBars != isErrorSource {
		return errs.New(errs.InvalidArgument, "AddHistogram: mixed histogram kinds (error-bar vs not) in one accumulator")
	}

	for i, c := range bins {
		a.sumBins[i] += c
		if !a.hasErrorBars {
			a.sumSqBins[i] += c * c
		}
	}
	if a.hasErrorBars {
		for i, d := range eb.DeltaValues() {
			a.sumDeltaSq[i] += d * d
		}
	}
	a.sumOffChart += h.OffChartValue()
	a.n++
	return nil
}

// Finalize computes bin means and error bars from the accumulated inputs.
func (a *Averaged) Finalize() error {
	if a.n == 0 {
		return errs.New(errs.InvalidArgument, "Finalize: no histograms were added")
	}

	n := float64(a.n)
	mean := make([]float64, a.params.NumBins)
	delta := make([]float64, a.params.NumBins)

	for i := range mean {
		mean[i] = a.sumBins[i] / n
	}

	if a.hasErrorBars {
		for i := range delta {
			delta[i] = math.Sqrt(a.sumDeltaSq[i]) / n
		}
	} else if a.n > 1 {
		for i := range delta {
			variance := (a.sumSqBins[i] - a.sumBins[i]*a.sumBins[i]/n) / (n - 1)
			if variance < 0 {
				variance = 0
			}
			delta[i] = math.Sqrt(variance)
		}
	}

	a.result = WithErrorBars{
		Histogram: Histogram{Params: a.params, Bins: mean, OffChart: a.sumOffChart / n},
		Delta:     delta,
	}
	a.finalized = true
	return nil
}

// Result returns the finalized histogram. Fails with OutOfRange if called
// before Finalize.
func (a *Averaged) Result() (*WithErrorBars, error) {
	if !a.finalized {
		return nil, errs.New(errs.OutOfRange, "Result called before Finalize")
	}
	return &a.result, nil
}

// NumHistograms returns how many inputs have been accumulated so far.
func (a *Averaged) NumHistograms() int { return a.n }

// Reset clears all accumulated state so the accumulator can be reused.
func (a *Averaged) Reset() {
	for i := range a.sumBins {
		a.sumBins[i] = 0
		a.sumSqBins[i] = 0
	}
	a.sumDeltaSq = nil
	a.sumOffChart = 0
	a.n = 0
	a.modeSet = false
	a.hasErrorBars = false
	a.finalized = false
	a.result = WithErrorBars{}
}
