package dispatch

import (
	"math"

	"github.com/causalgo/tomomc/internal/mhwalk"
)

// reportingController wraps a task's real Controller, publishing progress
// to a shared *progress after delegating, so the dispatcher's reporting
// goroutine can poll it without touching the task's own goroutine.
type reportingController[P any] struct {
	inner mhwalk.Controller[P]
	prog  *progress
}

func (r *reportingController[P]) Init(rwParams mhwalk.RWParams, walker mhwalk.Walker[P], status mhwalk.Status) {
	r.inner.Init(rwParams, walker, status)
}

func (r *reportingController[P]) ThermalizingDone(rwParams mhwalk.RWParams, walker mhwalk.Walker[P], status mhwalk.Status) {
	r.inner.ThermalizingDone(rwParams, walker, status)
}

func (r *reportingController[P]) Done(rwParams mhwalk.RWParams, walker mhwalk.Walker[P], status mhwalk.Status) {
	r.inner.Done(rwParams, walker, status)
}

func (r *reportingController[P]) AdjustParams(walkParams *mhwalk.Params, isTherm, isAfterSample bool, walker mhwalk.Walker[P], status mhwalk.Status) error {
	if err := r.inner.AdjustParams(walkParams, isTherm, isAfterSample, walker, status); err != nil {
		return err
	}
	r.prog.iterK.Store(int64(status.IterK()))
	r.prog.numAccepted.Store(int64(status.NumAccepted()))
	r.prog.numLive.Store(int64(status.NumLivePoints()))
	r.prog.stepSizeMB.Store(math.Float64bits(walkParams.StepSize))
	return nil
}

func (r *reportingController[P]) AllowDoneThermalization(walkParams mhwalk.Params, walker mhwalk.Walker[P], status mhwalk.Status) bool {
	return r.inner.AllowDoneThermalization(walkParams, walker, status)
}

func (r *reportingController[P]) AllowDoneRuns(walkParams mhwalk.Params, walker mhwalk.Walker[P], status mhwalk.Status) bool {
	return r.inner.AllowDoneRuns(walkParams, walker, status)
}

func (r *reportingController[P]) Strategy() mhwalk.AdjustmentStrategy {
	return r.inner.Strategy()
}
