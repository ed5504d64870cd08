// Package aggregate combines the per-task results of a MultiTask dispatch
// run into a single final histogram with error bars (combining each task's
// own binning-derived error bar in quadrature) and a second, simpler final
// histogram (the naive standard deviation of the per-task means), the two
// being spec.md's final_histogram and simple_final_histogram respectively.
package aggregate

import (
	"github.com/causalgo/tomomc/internal/dispatch"
	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/mhwalk"
	"github.com/causalgo/tomomc/internal/valuehist"
	"github.com/causalgo/tomomc/internal/vhist"
)

// TaskSummary is one task's contribution to the aggregate report: whether
// it was actually averaged in, its run summary, and its own convergence
// diagnosis.
type TaskSummary struct {
	TaskIndex       int
	Status          dispatch.TaskStatus
	Summary         mhwalk.Summary
	ConvergedCounts valuehist.ConvergedCounts
	Warnings        []errs.Warning
}

// Result is the finalized aggregate of a dispatch run.
type Result struct {
	Final   *vhist.WithErrorBars // binning-derived error bars, combined in quadrature
	Simple  *vhist.WithErrorBars // naive inter-task standard deviation
	PerTask []TaskSummary
}

// Aggregator accumulates per-task with-binning results into the two final
// histograms. AddHistogram order never affects the result (Averaged's
// accumulation is a commutative running sum), matching spec.md's
// order-independence property.
type Aggregator struct {
	params vhist.Params
	final  *vhist.Averaged
	simple *vhist.Averaged

	perTask []TaskSummary
}

// New returns an empty Aggregator over the given histogram parameters.
func New(params vhist.Params) (*Aggregator, error) {
	final, err := vhist.NewAveraged(params)
	if err != nil {
		return nil, err
	}
	simple, err := vhist.NewAveraged(params)
	if err != nil {
		return nil, err
	}
	return &Aggregator{params: params, final: final, simple: simple}, nil
}

// Add folds one task's result into the running totals. Tasks whose status
// is not dispatch.StatusOK are recorded in PerTask but excluded from both
// final histograms, per spec.md's cancelled-task accounting.
func (a *Aggregator) Add(taskIndex int, status dispatch.TaskStatus, summary mhwalk.Summary, result *valuehist.WithBinningResult) error {
	ts := TaskSummary{TaskIndex: taskIndex, Status: status, Summary: summary}
	if result != nil {
		ts.ConvergedCounts = valuehist.SummarizeConvergence(result.ConvergedStatus)
		ts.Warnings = result.Warnings
	}

	if status == dispatch.StatusOK && result != nil {
		if err := a.final.AddHistogram(result.Histogram); err != nil {
			return errs.Wrap(errs.InvalidArgument, err, "aggregating task %d into final_histogram", taskIndex)
		}
		plain := &vhist.Histogram{
			Params:   result.Histogram.Params,
			Bins:     append([]float64(nil), result.Histogram.Bins...),
			OffChart: result.Histogram.OffChart,
		}
		if err := a.simple.AddHistogram(plain); err != nil {
			return errs.Wrap(errs.InvalidArgument, err, "aggregating task %d into simple_final_histogram", taskIndex)
		}
	}

	a.perTask = append(a.perTask, ts)
	return nil
}

// Finalize computes both final histograms from whatever was added via Add.
func (a *Aggregator) Finalize() (*Result, error) {
	if a.final.NumHistograms() == 0 {
		return nil, errs.New(errs.InvalidArgument, "no successful tasks to aggregate")
	}
	if err := a.final.Finalize(); err != nil {
		return nil, err
	}
	if err := a.simple.Finalize(); err != nil {
		return nil, err
	}
	final, err := a.final.Result()
	if err != nil {
		return nil, err
	}
	simple, err := a.simple.Result()
	if err != nil {
		return nil, err
	}
	return &Result{Final: final, Simple: simple, PerTask: a.perTask}, nil
}

// Aggregate is the common-case entry point: given the histogram params and
// a dispatch run's per-task results (each task's StatsCollector must be a
// *valuehist.WithBinning[P]), it builds and finalizes an Aggregator in one
// call.
func Aggregate[P any](params vhist.Params, results []dispatch.TaskResult[P]) (*Result, error) {
	agg, err := New(params)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		var wbResult *valuehist.WithBinningResult
		if r.Status == dispatch.StatusOK {
			wb, ok := r.Stats.(*valuehist.WithBinning[P])
			if !ok {
				return nil, errs.New(errs.InvalidArgument, "task %d stats collector is not *valuehist.WithBinning", r.TaskIndex)
			}
			wbResult, err = wb.Result()
			if err != nil {
				return nil, errs.Wrap(errs.InvalidArgument, err, "task %d", r.TaskIndex)
			}
		}
		if err := agg.Add(r.TaskIndex, r.Status, r.Summary, wbResult); err != nil {
			return nil, err
		}
	}
	return agg.Finalize()
}
