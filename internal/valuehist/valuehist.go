// Package valuehist implements the value-histogram statistics collector:
// it records a histogram of a per-sample scalar figure of merit computed by
// a ValueCalculator, optionally coupled to a binning error analysis that
// turns the sequence of bin-indicator vectors into per-bin error bars.
package valuehist

import (
	"github.com/causalgo/tomomc/internal/binning"
	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/vhist"
)

// ValueCalculator computes the scalar figure of merit for a walk point.
type ValueCalculator[P any] interface {
	GetValue(point P) (float64, error)
}

// ConvergedCounts summarizes a convergence-status vector the way the
// aggregator's report needs it: total unknown bins, how many of those are
// "isolated" (not adjacent to another unknown bin) vs not, and how many
// bins are outright not converged.
type ConvergedCounts struct {
	Unknown            int
	UnknownNotIsolated int
	NotConverged       int
}

// SummarizeConvergence counts status occurrences, treating two Unknown
// bins as "not isolated" from each other when they are adjacent.
func SummarizeConvergence(statuses []binning.Status) ConvergedCounts {
	var c ConvergedCounts
	for i, s := range statuses {
		switch s {
		case binning.Unknown:
			c.Unknown++
			leftUnknown := i > 0 && statuses[i-1] == binning.Unknown
			rightUnknown := i+1 < len(statuses) && statuses[i+1] == binning.Unknown
			if leftUnknown || rightUnknown {
				c.UnknownNotIsolated++
			}
		case binning.NotConverged:
			c.NotConverged++
		}
	}
	return c
}

// Basic records a histogram of calc(point) without error bars.
type Basic[P any] struct {
	calc ValueCalculator[P]
	hist *vhist.Histogram
}

// NewBasic constructs a Basic collector targeting the given histogram
// parameters.
func NewBasic[P any](calc ValueCalculator[P], params vhist.Params) (*Basic[P], error) {
	h, err := vhist.New(params)
	if err != nil {
		return nil, err
	}
	return &Basic[P]{calc: calc, hist: h}, nil
}

func (b *Basic[P]) Init()             {}
func (b *Basic[P]) ThermalizingDone() {}
func (b *Basic[P]) Done() error       { return nil }

// ProcessSample computes calc(pt) and records it into the histogram.
func (b *Basic[P]) ProcessSample(iterK, nLive int, pt P) error {
	v, err := b.calc.GetValue(pt)
	if err != nil {
		return err
	}
	b.hist.Record(v, 1)
	return nil
}

// Histogram returns the accumulated histogram (valid at any time; it is
// simply however much has been recorded so far).
func (b *Basic[P]) Histogram() *vhist.Histogram { return b.hist }

// WithBinningResult is the outcome of a WithBinning collector's Done().
type WithBinningResult struct {
	Histogram       *vhist.WithErrorBars
	ErrorLevels     [][]float64 // NumBins x (NumLevels+1)
	ConvergedStatus []binning.Status
	Warnings        []errs.Warning
}

// WithBinning records a histogram of calc(point) the same way Basic does,
// while additionally feeding each sample's bin-indicator vector into a
// BinningAnalysis so that, at Done(), each histogram bin gets an error bar
// from the binning error analysis on its own indicator time series.
type WithBinning[P any] struct {
	calc     ValueCalculator[P]
	hist     *vhist.Histogram
	analysis *binning.Analysis
	scratch  []float64

	result *WithBinningResult
}

// NewWithBinning constructs a with-binning collector. numLevels is the
// depth of the binning hierarchy (§4.2); the number of tracked coordinates
// is fixed at params.NumBins, one per histogram bin.
func NewWithBinning[P any](calc ValueCalculator[P], params vhist.Params, numLevels int) (*WithBinning[P], error) {
	h, err := vhist.New(params)
	if err != nil {
		return nil, err
	}
	a, err := binning.New(params.NumBins, numLevels)
	if err != nil {
		return nil, err
	}
	return &WithBinning[P]{
		calc:     calc,
		hist:     h,
		analysis: a,
		scratch:  make([]float64, params.NumBins),
	}, nil
}

func (w *WithBinning[P]) Init()             {}
func (w *WithBinning[P]) ThermalizingDone() {}

// ProcessSample computes calc(pt), records it, and feeds the resulting
// canonical-basis (or zero, if off-chart) indicator vector to the binning
// analysis.
func (w *WithBinning[P]) ProcessSample(iterK, nLive int, pt P) error {
	v, err := w.calc.GetValue(pt)
	if err != nil {
		return err
	}
	idx := w.hist.Record(v, 1)

	for i := range w.scratch {
		w.scratch[i] = 0
	}
	if idx >= 0 {
		w.scratch[idx] = 1
	}
	return w.analysis.ProcessNewValues(w.scratch)
}

// Done finalizes the with-binning result: computes bin probabilities,
// derives per-bin error bars from the binning analysis, and classifies
// each bin's convergence status.
func (w *WithBinning[P]) Done() error {
	denom := w.hist.TotalCounts()
	probs := make([]float64, len(w.hist.Bins))
	if denom > 0 {
		for i, c := range w.hist.Bins {
			probs[i] = c / denom
		}
	}

	errorLevels, err := w.analysis.CalcErrorLevels(probs)
	if err != nil {
		return err
	}
	lastCol := make([]float64, len(probs))
	for i, row := range errorLevels {
		lastCol[i] = row[len(row)-1]
	}

	eb, err := vhist.NewWithErrorBars(w.hist.Params)
	if err != nil {
		return err
	}
	offChart := 0.0
	if denom > 0 {
		offChart = w.hist.OffChart / denom
	}
	if err := eb.LoadWithErrors(probs, lastCol, offChart); err != nil {
		return err
	}

	statuses := binning.DetermineErrorConvergence(errorLevels)

	var warnings []errs.Warning
	if w.analysis.NumLevels() >= 1 {
		topLevelSamples := w.hist.TotalCounts() / float64(int64(1)<<uint(w.analysis.NumLevels()))
		if topLevelSamples < 2 {
			warnings = append(warnings, errs.Warningf(
				"binning analysis: deepest level (%d) has fewer than 2 samples; request more run sweeps or fewer levels",
				w.analysis.NumLevels()))
		}
	}

	w.result = &WithBinningResult{
		Histogram:       eb,
		ErrorLevels:     errorLevels,
		ConvergedStatus: statuses,
		Warnings:        warnings,
	}
	return nil
}

// Result returns the finalized result. Valid only after Done().
func (w *WithBinning[P]) Result() (*WithBinningResult, error) {
	if w.result == nil {
		return nil, errs.New(errs.OutOfRange, "WithBinning.Result called before Done")
	}
	return w.result, nil
}

// ProvisionalStatus recomputes convergence status from the collector's
// current (not-yet-finalized) state, for use by a controller deciding
// whether to terminate the sampling phase early (§4.5 BinsConvergedController).
func (w *WithBinning[P]) ProvisionalStatus() ([]binning.Status, error) {
	denom := w.hist.TotalCounts()
	if denom == 0 {
		statuses := make([]binning.Status, len(w.hist.Bins))
		for i := range statuses {
			statuses[i] = binning.Unknown
		}
		return statuses, nil
	}
	probs := make([]float64, len(w.hist.Bins))
	for i, c := range w.hist.Bins {
		probs[i] = c / denom
	}
	errorLevels, err := w.analysis.CalcErrorLevels(probs)
	if err != nil {
		return nil, err
	}
	return binning.DetermineErrorConvergence(errorLevels), nil
}

// Histogram returns the in-progress (not error-barred) histogram.
func (w *WithBinning[P]) Histogram() *vhist.Histogram { return w.hist }
