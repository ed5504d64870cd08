package control

import (
	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/mhwalk"
	"github.com/causalgo/tomomc/internal/valuehist"
)

// BinsConvergedController keeps the sampling phase running past its nominal
// sample count until every histogram bin's binning-error estimate has
// converged, checked every checkEveryRun samples to keep the check's own
// overhead negligible.
type BinsConvergedController[P any] struct {
	collector     *valuehist.WithBinning[P]
	checkEveryRun int
}

// NewBinsConvergedController builds a controller polling the given
// collector's provisional convergence status.
func NewBinsConvergedController[P any](collector *valuehist.WithBinning[P], checkEveryRun int) (*BinsConvergedController[P], error) {
	if collector == nil {
		return nil, errs.New(errs.InvalidArgument, "collector must not be nil")
	}
	if checkEveryRun < 1 {
		return nil, errs.New(errs.InvalidArgument, "checkEveryRun must be >= 1, got %d", checkEveryRun)
	}
	return &BinsConvergedController[P]{collector: collector, checkEveryRun: checkEveryRun}, nil
}

func (c *BinsConvergedController[P]) Init(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status)             {}
func (c *BinsConvergedController[P]) ThermalizingDone(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status) {}
func (c *BinsConvergedController[P]) Done(mhwalk.RWParams, mhwalk.Walker[P], mhwalk.Status)             {}

func (c *BinsConvergedController[P]) AdjustParams(*mhwalk.Params, bool, bool, mhwalk.Walker[P], mhwalk.Status) error {
	return nil
}

func (c *BinsConvergedController[P]) AllowDoneThermalization(mhwalk.Params, mhwalk.Walker[P], mhwalk.Status) bool {
	return true
}

// AllowDoneRuns polls the collector's provisional convergence status every
// checkEveryRun live samples, and allows termination only at such a check
// point and only once no bin is NotConverged or Unknown.
func (c *BinsConvergedController[P]) AllowDoneRuns(_ mhwalk.Params, _ mhwalk.Walker[P], status mhwalk.Status) bool {
	nLive := status.NumLivePoints()
	if nLive == 0 || nLive%c.checkEveryRun != 0 {
		return false
	}
	statuses, err := c.collector.ProvisionalStatus()
	if err != nil {
		return false
	}
	counts := valuehist.SummarizeConvergence(statuses)
	return counts.NotConverged == 0 && counts.Unknown == 0
}

func (c *BinsConvergedController[P]) Strategy() mhwalk.AdjustmentStrategy {
	return mhwalk.AdjustWhileRunning
}
