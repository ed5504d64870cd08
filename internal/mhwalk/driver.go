package mhwalk

import (
	"math/rand"

	"github.com/causalgo/tomomc/internal/errs"
)

// RWParams bundles the Metropolis-Hastings driver's iteration schedule:
// NSweep iterations separate each kept sample (and each thermalization
// checkpoint), NTherm sweeps of thermalization run before sampling starts,
// and NRun samples are collected during the sampling phase.
type RWParams struct {
	NSweep int
	NTherm int
	NRun   int
}

// Validate checks the schedule is well-formed.
func (p RWParams) Validate() error {
	if p.NSweep < 1 {
		return errs.New(errs.InvalidArgument, "n_sweep must be >= 1, got %d", p.NSweep)
	}
	if p.NTherm < 0 {
		return errs.New(errs.InvalidArgument, "n_therm must be >= 0, got %d", p.NTherm)
	}
	if p.NRun < 1 {
		return errs.New(errs.InvalidArgument, "n_run must be >= 1, got %d", p.NRun)
	}
	return nil
}

// StatsCollector receives the live samples of a completed sampling phase.
// Basic and WithBinning in package valuehist both implement this.
type StatsCollector[P any] interface {
	Init()
	ThermalizingDone()
	ProcessSample(iterK, nLive int, pt P) error
	Done() error
}

// Status is the read-only view of walk progress a Controller or
// StatsCollector may query; *RandomWalk implements it.
type Status interface {
	IterK() int
	NumAccepted() int
	NumLivePoints() int
	HasAcceptanceRatio() bool
	AcceptanceRatio() float64
}

// AdjustmentStrategy flags when a Controller wants its AdjustParams called,
// used by control.MultipleControllers to check pairwise compatibility
// before composing controllers (two controllers that both adjust the step
// size on every iteration would fight each other).
type AdjustmentStrategy uint8

const (
	AdjustEveryIteration AdjustmentStrategy = 1 << iota
	AdjustEverySample
	AdjustWhileThermalizing
	AdjustWhileRunning
)

// Controller observes and steers a running walk: it may adjust walker
// parameters (e.g. step size) and may veto the end of either phase, which
// extends that phase past its nominal length. Implementations live in
// package control.
type Controller[P any] interface {
	Init(rwParams RWParams, walker Walker[P], status Status)
	ThermalizingDone(rwParams RWParams, walker Walker[P], status Status)
	Done(rwParams RWParams, walker Walker[P], status Status)
	AdjustParams(walkParams *Params, isTherm, isAfterSample bool, walker Walker[P], status Status) error
	AllowDoneThermalization(walkParams Params, walker Walker[P], status Status) bool
	AllowDoneRuns(walkParams Params, walker Walker[P], status Status) bool
	Strategy() AdjustmentStrategy
}

// RandomWalk drives a Walker through thermalisation and sampling phases,
// dispatching accepted-move bookkeeping to a StatsCollector and giving a
// Controller a chance to adjust the walk parameters and to veto the end of
// a phase at sweep boundaries.
type RandomWalk[P any] struct {
	walker Walker[P]
	stats  StatsCollector[P]
	ctrl   Controller[P]
	rng    *rand.Rand

	rwParams   RWParams
	walkParams Params

	curPt  P
	curVal float64

	iterK         int
	numAccepted   int
	numLivePoints int

	valueFn  valueFn[P]
	acceptFn acceptanceFn[P]
}

// New validates its inputs, resolves the walker's value-function syntax
// once, and returns a ready-to-Run driver.
func New[P any](
	walker Walker[P],
	stats StatsCollector[P],
	ctrl Controller[P],
	rng *rand.Rand,
	rwParams RWParams,
	walkParams Params,
) (*RandomWalk[P], error) {
	if err := rwParams.Validate(); err != nil {
		return nil, err
	}
	if walkParams.StepSize <= 0 {
		return nil, errs.New(errs.InvalidArgument, "step_size must be > 0, got %v", walkParams.StepSize)
	}
	vf, af, err := resolveFnSyntax[P](walker)
	if err != nil {
		return nil, err
	}
	return &RandomWalk[P]{
		walker:     walker,
		stats:      stats,
		ctrl:       ctrl,
		rng:        rng,
		rwParams:   rwParams,
		walkParams: walkParams,
		valueFn:    vf,
		acceptFn:   af,
	}, nil
}

func (rw *RandomWalk[P]) IterK() int              { return rw.iterK }
func (rw *RandomWalk[P]) NumAccepted() int        { return rw.numAccepted }
func (rw *RandomWalk[P]) NumLivePoints() int      { return rw.numLivePoints }
func (rw *RandomWalk[P]) HasAcceptanceRatio() bool { return rw.iterK > 0 }

func (rw *RandomWalk[P]) AcceptanceRatio() float64 {
	if rw.iterK == 0 {
		return 0
	}
	return float64(rw.numAccepted) / float64(rw.iterK)
}

// Summary is a terse end-of-run snapshot, the figures the dispatcher's
// status reports and the aggregator's per-task overview are built from.
type Summary struct {
	TotalIters      int
	NumAccepted     int
	NumLivePoints   int
	AcceptanceRatio float64
}

// Run executes the full thermalisation + sampling schedule. cancelled (if
// non-nil) is checked at each sweep boundary so a cancelled task exits
// promptly rather than mid-sweep.
func (rw *RandomWalk[P]) Run(cancelled func() bool) (Summary, error) {
	rw.curPt = rw.walker.StartPoint()
	var err error
	rw.curVal, err = rw.valueFn(rw.curPt)
	if err != nil {
		return Summary{}, errs.Wrap(errs.NumericAssertion, err, "evaluating start point")
	}

	rw.walker.Init()
	rw.stats.Init()
	rw.ctrl.Init(rw.rwParams, rw.walker, rw)

	// Disjunctive schedule per spec: keep sweeping while sweep < NTherm OR
	// the controller still vetoes completion; stop only once both
	// sweep >= NTherm AND AllowDoneThermalization agrees. A controller can
	// therefore extend thermalization past NTherm, not just cut it short.
	for sweep := 0; sweep < rw.rwParams.NTherm || !rw.ctrl.AllowDoneThermalization(rw.walkParams, rw.walker, rw); sweep++ {
		if cancelled != nil && cancelled() {
			return rw.summary(), errs.New(errs.Interrupted, "thermalization cancelled")
		}
		for i := 0; i < rw.rwParams.NSweep; i++ {
			if err := rw.move(true); err != nil {
				return rw.summary(), err
			}
			if err := rw.ctrl.AdjustParams(&rw.walkParams, true, false, rw.walker, rw); err != nil {
				return rw.summary(), err
			}
		}
		if err := rw.ctrl.AdjustParams(&rw.walkParams, true, true, rw.walker, rw); err != nil {
			return rw.summary(), err
		}
	}
	rw.walker.ThermalizingDone()
	rw.stats.ThermalizingDone()
	rw.ctrl.ThermalizingDone(rw.rwParams, rw.walker, rw)

	// Same disjunctive rule for the sampling phase: a controller (e.g.
	// BinsConvergedController) that still finds bins unconverged at s==NRun
	// keeps the walk running past its configured sample count.
	for s := 0; s < rw.rwParams.NRun || !rw.ctrl.AllowDoneRuns(rw.walkParams, rw.walker, rw); s++ {
		if cancelled != nil && cancelled() {
			return rw.summary(), errs.New(errs.Interrupted, "sampling cancelled")
		}
		for i := 0; i < rw.rwParams.NSweep; i++ {
			if err := rw.move(false); err != nil {
				return rw.summary(), err
			}
			if err := rw.ctrl.AdjustParams(&rw.walkParams, false, false, rw.walker, rw); err != nil {
				return rw.summary(), err
			}
		}
		if err := rw.stats.ProcessSample(rw.iterK, rw.numLivePoints, rw.curPt); err != nil {
			return rw.summary(), err
		}
		rw.numLivePoints++
		if err := rw.ctrl.AdjustParams(&rw.walkParams, false, true, rw.walker, rw); err != nil {
			return rw.summary(), err
		}
	}

	rw.walker.Done()
	if err := rw.stats.Done(); err != nil {
		return rw.summary(), err
	}
	rw.ctrl.Done(rw.rwParams, rw.walker, rw)

	return rw.summary(), nil
}

func (rw *RandomWalk[P]) summary() Summary {
	return Summary{
		TotalIters:      rw.iterK,
		NumAccepted:     rw.numAccepted,
		NumLivePoints:   rw.numLivePoints,
		AcceptanceRatio: rw.AcceptanceRatio(),
	}
}

func (rw *RandomWalk[P]) move(isTherm bool) error {
	candidate := rw.walker.JumpFn(rw.rng, rw.curPt, rw.walkParams)
	newVal, err := rw.valueFn(candidate)
	if err != nil {
		return errs.Wrap(errs.NumericAssertion, err, "evaluating candidate point")
	}
	a, err := rw.acceptFn(candidate, newVal, rw.curPt, rw.curVal)
	if err != nil {
		return errs.Wrap(errs.NumericAssertion, err, "computing acceptance ratio")
	}
	if a >= 1 || rw.rng.Float64() < a {
		rw.curPt = candidate
		rw.curVal = newVal
		rw.numAccepted++
	}
	rw.iterK++
	_ = isTherm
	return nil
}
