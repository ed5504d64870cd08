// Package mhwalk implements the Metropolis-Hastings random walk driver: a
// walker supplies candidate points and a figure-of-merit function in one of
// three equivalent syntaxes, and the driver runs thermalisation and
// sampling phases over it while feeding live points to a stats collector
// and giving controllers a chance to adjust parameters between sweeps.
package mhwalk

import (
	"math"
	"math/rand"

	"github.com/causalgo/tomomc/internal/errs"
)

// Params bundles the tunable parameters of a walker's jump function. The
// canonical case is a single positive step size; Extra carries any
// additional named knobs a concrete walker chooses to expose (e.g. a
// light/full jump-method toggle is a construction-time choice, not a
// per-iteration parameter, so it does not belong here).
type Params struct {
	StepSize float64
	Extra    map[string]float64
}

// Walker is the point-generating half of a Metropolis-Hastings walk: it
// proposes candidate points and brackets the thermalisation/sampling
// phases. The figure-of-merit half is one of ValueWalker, LogValueWalker
// or RelativeValueWalker, implemented in addition to Walker.
type Walker[P any] interface {
	StartPoint() P
	JumpFn(rng *rand.Rand, cur P, params Params) P
	Init()
	ThermalizingDone()
	Done()
}

// ValueWalker computes the target distribution's value directly; the
// acceptance ratio is new/cur.
type ValueWalker[P any] interface {
	FnValue(p P) (float64, error)
}

// LogValueWalker computes the log of the target distribution's value; the
// acceptance ratio is exp(min(0, newLog-curLog)).
type LogValueWalker[P any] interface {
	FnLogValue(p P) (float64, error)
}

// RelativeValueWalker computes the acceptance ratio of a proposed move
// directly, without exposing a standalone per-point value (useful when
// only ratios are numerically stable to evaluate, e.g. a likelihood ratio
// between two close purifications).
type RelativeValueWalker[P any] interface {
	FnRelativeValue(newPt, curPt P) (float64, error)
}

// valueFn evaluates a walker's function value at a point, in whichever of
// the three syntaxes the walker implements; for RelativeValueWalker it
// always returns 0 (undefined and unused).
type valueFn[P any] func(p P) (float64, error)

// acceptanceFn computes the Metropolis-Hastings acceptance ratio for a
// proposed move, given the walker's raw function values at both ends.
type acceptanceFn[P any] func(newPt P, newVal float64, curPt P, curVal float64) (float64, error)

// resolveFnSyntax inspects which of the three value interfaces w
// implements and builds the corresponding valueFn/acceptanceFn pair once,
// at driver construction, rather than re-dispatching on every iteration.
func resolveFnSyntax[P any](w Walker[P]) (valueFn[P], acceptanceFn[P], error) {
	switch vw := any(w).(type) {
	case ValueWalker[P]:
		return vw.FnValue,
			func(_ P, newVal float64, _ P, curVal float64) (float64, error) {
				if curVal <= 0 {
					return 0, errs.New(errs.NumericAssertion, "FnValue acceptance ratio: current value %v is not positive", curVal)
				}
				return newVal / curVal, nil
			}, nil
	case LogValueWalker[P]:
		return vw.FnLogValue,
			func(_ P, newVal float64, _ P, curVal float64) (float64, error) {
				return math.Exp(math.Min(0, newVal-curVal)), nil
			}, nil
	case RelativeValueWalker[P]:
		return func(P) (float64, error) { return 0, nil },
			func(newPt P, _ float64, curPt P, _ float64) (float64, error) {
				return vw.FnRelativeValue(newPt, curPt)
			}, nil
	default:
		var zero P
		_ = zero
		return nil, nil, errs.New(errs.InvalidArgument,
			"walker implements none of ValueWalker, LogValueWalker, RelativeValueWalker")
	}
}
