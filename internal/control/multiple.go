package control

import (
	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/mhwalk"
)

// MultipleControllers composes several Controllers into one: each hook
// runs them in construction order, AllowDoneThermalization/AllowDoneRuns
// are the logical AND across all of them (every controller must agree
// before a phase may end), and Strategy is their bitwise OR.
type MultipleControllers[P any] struct {
	ctrls []mhwalk.Controller[P]
}

// New checks that no two controllers claim the same phase+frequency
// adjustment slot (which would mean both mutate walk parameters at the
// same point in the schedule, fighting each other) and composes them.
func New[P any](ctrls ...mhwalk.Controller[P]) (*MultipleControllers[P], error) {
	for i := 0; i < len(ctrls); i++ {
		for j := i + 1; j < len(ctrls); j++ {
			if conflicts(ctrls[i].Strategy(), ctrls[j].Strategy()) {
				return nil, errs.New(errs.InvalidArgument,
					"controllers at index %d and %d both adjust parameters at the same phase and frequency", i, j)
			}
		}
	}
	return &MultipleControllers[P]{ctrls: ctrls}, nil
}

func conflicts(a, b mhwalk.AdjustmentStrategy) bool {
	const phaseMask = mhwalk.AdjustWhileThermalizing | mhwalk.AdjustWhileRunning
	const freqMask = mhwalk.AdjustEveryIteration | mhwalk.AdjustEverySample
	if a&phaseMask == 0 || b&phaseMask == 0 || a&freqMask == 0 || b&freqMask == 0 {
		return false
	}
	return a&phaseMask&b != 0 && a&freqMask&b != 0
}

func (m *MultipleControllers[P]) Init(rwParams mhwalk.RWParams, walker mhwalk.Walker[P], status mhwalk.Status) {
	for _, c := range m.ctrls {
		c.Init(rwParams, walker, status)
	}
}

func (m *MultipleControllers[P]) ThermalizingDone(rwParams mhwalk.RWParams, walker mhwalk.Walker[P], status mhwalk.Status) {
	for _, c := range m.ctrls {
		c.ThermalizingDone(rwParams, walker, status)
	}
}

func (m *MultipleControllers[P]) Done(rwParams mhwalk.RWParams, walker mhwalk.Walker[P], status mhwalk.Status) {
	for _, c := range m.ctrls {
		c.Done(rwParams, walker, status)
	}
}

func (m *MultipleControllers[P]) AdjustParams(walkParams *mhwalk.Params, isTherm, isAfterSample bool, walker mhwalk.Walker[P], status mhwalk.Status) error {
	for _, c := range m.ctrls {
		if err := c.AdjustParams(walkParams, isTherm, isAfterSample, walker, status); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultipleControllers[P]) AllowDoneThermalization(walkParams mhwalk.Params, walker mhwalk.Walker[P], status mhwalk.Status) bool {
	for _, c := range m.ctrls {
		if !c.AllowDoneThermalization(walkParams, walker, status) {
			return false
		}
	}
	return true
}

func (m *MultipleControllers[P]) AllowDoneRuns(walkParams mhwalk.Params, walker mhwalk.Walker[P], status mhwalk.Status) bool {
	for _, c := range m.ctrls {
		if !c.AllowDoneRuns(walkParams, walker, status) {
			return false
		}
	}
	return true
}

func (m *MultipleControllers[P]) Strategy() mhwalk.AdjustmentStrategy {
	var s mhwalk.AdjustmentStrategy
	for _, c := range m.ctrls {
		s |= c.Strategy()
	}
	return s
}

// NeverDoneController never adjusts parameters and never allows a phase to
// end early. Because the driver's schedule loop is disjunctive (a phase
// ends only once both its nominal sweep count is reached AND every
// controller allows completion), composing this controller makes a walk
// run forever: it is a permanent veto, not a floor. It exists mainly to
// exercise the veto path in tests; real configurations should use
// AlwaysDoneController or a controller with an actual convergence
// criterion such as BinsConvergedController.
type NeverDoneController[P any] struct{}

func (NeverDoneController[P]) Init(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status)             {}
func (NeverDoneController[P]) ThermalizingDone(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status) {}
func (NeverDoneController[P]) Done(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status)             {}
func (NeverDoneController[P]) AdjustParams(*mhwalk.Params, bool, bool, mhwalk.Walker[P], mhwalk.Status) error {
	return nil
}
func (NeverDoneController[P]) AllowDoneThermalization(mhwalk.Params, mhwalk.Walker[P], mhwalk.Status) bool {
	return false
}
func (NeverDoneController[P]) AllowDoneRuns(mhwalk.Params, mhwalk.Walker[P], mhwalk.Status) bool {
	return false
}
func (NeverDoneController[P]) Strategy() mhwalk.AdjustmentStrategy { return 0 }

// AlwaysDoneController never adjusts parameters and never vetoes
// completion of either phase; composing it (or simply omitting any
// vetoing controller) runs a walk to exactly its configured NTherm/NRun
// schedule, no more and no less.
type AlwaysDoneController[P any] struct{}

func (AlwaysDoneController[P]) Init(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status)             {}
func (AlwaysDoneController[P]) ThermalizingDone(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status) {}
func (AlwaysDoneController[P]) Done(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status)             {}
func (AlwaysDoneController[P]) AdjustParams(*mhwalk.Params, bool, bool, mhwalk.Walker[P], mhwalk.Status) error {
	return nil
}
func (AlwaysDoneController[P]) AllowDoneThermalization(mhwalk.Params, mhwalk.Walker[P], mhwalk.Status) bool {
	return true
}
func (AlwaysDoneController[P]) AllowDoneRuns(mhwalk.Params, mhwalk.Walker[P], mhwalk.Status) bool {
	return true
}
func (AlwaysDoneController[P]) Strategy() mhwalk.AdjustmentStrategy { return 0 }
