// Package control implements Controllers that observe a running
// Metropolis-Hastings walk and adjust its parameters or veto the end of a
// phase: a moving-average step-size controller that keeps the acceptance
// ratio in a target band during thermalization, a binning convergence
// controller that keeps the sampling phase running until all histogram
// bins' error estimates have converged, and a composer that runs several
// controllers together after checking they do not fight over the same
// adjustment.
package control

import (
	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/mhwalk"
)

// StepSizeController keeps the walk's acceptance ratio within
// [lowOK, highOK] during thermalization by growing or shrinking the step
// size multiplicatively, tracked with a simple per-sweep exponential
// moving average. It never vetoes the sampling phase; AllowDoneThermalization
// requires two independent conditions per spec.md §4.5(a): the step size
// must have been stable for at least minFixedParamsFraction of the
// configured thermalization length (so a run doesn't start sampling right
// after a step-size change invalidates the walk's local calibration), AND
// the moving-average acceptance ratio must currently sit within the wider
// [lowAccept, highAccept] band — a walk whose acceptance has drifted
// outside even that band is not allowed to finish thermalizing just
// because nothing has nudged it in a while.
type StepSizeController[P any] struct {
	lowOK, highOK         float64
	lowAccept, highAccept float64
	factor                float64
	emaAlpha              float64

	minFixedParamsFraction float64

	rwParams mhwalk.RWParams

	ema                float64
	emaInit            bool
	prevNumAccepted    int
	prevIterK          int
	lastStepChangeIter int
}

// NewStepSizeController builds a controller that adjusts the step size
// whenever the moving-average acceptance ratio leaves [lowOK, highOK], by
// the given multiplicative factor (>1), with movingAvgSweeps setting the
// exponential moving average's effective window in sweeps.
// AllowDoneThermalization additionally requires the moving average to sit
// within the wider [lowAccept, highAccept] band once the step size has
// been stable for minFixedParamsFraction of the thermalization schedule.
func NewStepSizeController[P any](lowOK, highOK, lowAccept, highAccept, factor float64, movingAvgSweeps int, minFixedParamsFraction float64) (*StepSizeController[P], error) {
	if lowOK <= 0 || lowOK >= highOK || highOK >= 1 {
		return nil, errs.New(errs.InvalidArgument, "target band must satisfy 0 < lowOK < highOK < 1, got [%v, %v]", lowOK, highOK)
	}
	if lowAccept <= 0 || lowAccept > lowOK || highAccept < highOK || highAccept >= 1 {
		return nil, errs.New(errs.InvalidArgument,
			"acceptable band must satisfy 0 < lowAccept <= lowOK and highOK <= highAccept < 1, got [%v, %v] around [%v, %v]",
			lowAccept, highAccept, lowOK, highOK)
	}
	if factor <= 1 {
		return nil, errs.New(errs.InvalidArgument, "factor must be > 1, got %v", factor)
	}
	if movingAvgSweeps < 1 {
		return nil, errs.New(errs.InvalidArgument, "movingAvgSweeps must be >= 1, got %d", movingAvgSweeps)
	}
	if minFixedParamsFraction < 0 || minFixedParamsFraction > 1 {
		return nil, errs.New(errs.InvalidArgument, "minFixedParamsFraction must be in [0,1], got %v", minFixedParamsFraction)
	}
	return &StepSizeController[P]{
		lowOK:                  lowOK,
		highOK:                 highOK,
		lowAccept:              lowAccept,
		highAccept:             highAccept,
		factor:                 factor,
		emaAlpha:               1.0 / float64(movingAvgSweeps),
		minFixedParamsFraction: minFixedParamsFraction,
	}, nil
}

func (c *StepSizeController[P]) Init(rwParams mhwalk.RWParams, _ mhwalk.Walker[P], _ mhwalk.Status) {
	c.rwParams = rwParams
	c.ema = 0
	c.emaInit = false
	c.prevNumAccepted = 0
	c.prevIterK = 0
	c.lastStepChangeIter = 0
}

func (c *StepSizeController[P]) ThermalizingDone(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status) {}
func (c *StepSizeController[P]) Done(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status)             {}

// AdjustParams updates the step size once per sweep (isAfterSample),
// during thermalization only.
func (c *StepSizeController[P]) AdjustParams(walkParams *mhwalk.Params, isTherm, isAfterSample bool, _ mhwalk.Walker[P], status mhwalk.Status) error {
	if !isTherm || !isAfterSample {
		return nil
	}

	iterK := status.IterK()
	deltaIters := iterK - c.prevIterK
	if deltaIters <= 0 {
		return nil
	}
	sweepAccept := float64(status.NumAccepted()-c.prevNumAccepted) / float64(deltaIters)
	c.prevIterK = iterK
	c.prevNumAccepted = status.NumAccepted()

	if !c.emaInit {
		c.ema = sweepAccept
		c.emaInit = true
	} else {
		c.ema = c.ema*(1-c.emaAlpha) + sweepAccept*c.emaAlpha
	}

	switch {
	case c.ema < c.lowOK:
		walkParams.StepSize /= c.factor
		c.lastStepChangeIter = iterK
	case c.ema > c.highOK:
		walkParams.StepSize *= c.factor
		c.lastStepChangeIter = iterK
	}
	return nil
}

// AllowDoneThermalization requires both that the step size has been stable
// for at least minFixedParamsFraction of the configured thermalization
// length, and that the moving-average acceptance ratio currently lies
// within [lowAccept, highAccept] (spec.md §4.5(a)) — stability alone is not
// enough if the walk has drifted to an acceptance ratio outside even the
// wider acceptable band.
func (c *StepSizeController[P]) AllowDoneThermalization(_ mhwalk.Params, _ mhwalk.Walker[P], status mhwalk.Status) bool {
	totalThermIters := c.rwParams.NTherm * c.rwParams.NSweep
	if totalThermIters == 0 {
		return true
	}
	stableFor := status.IterK() - c.lastStepChangeIter
	if float64(stableFor) < c.minFixedParamsFraction*float64(totalThermIters) {
		return false
	}
	if !c.emaInit {
		return true
	}
	return c.ema >= c.lowAccept && c.ema <= c.highAccept
}

func (c *StepSizeController[P]) AllowDoneRuns(mhwalk.Params, mhwalk.Walker[P], mhwalk.Status) bool {
	return true
}

func (c *StepSizeController[P]) Strategy() mhwalk.AdjustmentStrategy {
	return mhwalk.AdjustEverySample | mhwalk.AdjustWhileThermalizing
}
