// Package dispatch runs K independent Metropolis-Hastings tasks in
// parallel, each with its own deterministically-seeded RNG, collects
// periodic status reports, and returns the per-task results for
// aggregation. Scheduling follows the teacher's worker-pool pattern: a
// buffered semaphore channel bounds concurrency, a sync.WaitGroup tracks
// completion, and a results slice is written to by index so no further
// synchronisation is needed on the happy path.
package dispatch

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/mhwalk"
)

// TaskFactory builds the per-task collaborators for task index i, using
// the rng that has already been seeded deterministically for that task.
// It is the one piece of CData that cannot be a plain data field, since
// Walker/StatsCollector/Controller are all per-task, not shared.
type TaskFactory[P any] func(taskIndex int, rng *rand.Rand) (mhwalk.Walker[P], mhwalk.StatsCollector[P], mhwalk.Controller[P], mhwalk.Params, error)

// CData is the dispatcher's immutable shared context: everything every
// task needs that does not vary per task, plus the factory that builds
// what does.
type CData[P any] struct {
	BaseSeed int64
	NumTasks int
	RWParams mhwalk.RWParams
	NewTask  TaskFactory[P]
}

func (c CData[P]) validate() error {
	if c.NumTasks < 1 {
		return errs.New(errs.InvalidArgument, "num_tasks must be >= 1, got %d", c.NumTasks)
	}
	if c.NewTask == nil {
		return errs.New(errs.InvalidArgument, "NewTask factory must not be nil")
	}
	return c.RWParams.Validate()
}

// TaskStatus classifies how a task ended.
type TaskStatus int

const (
	StatusOK TaskStatus = iota
	StatusInterrupted
	StatusError
)

func (s TaskStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInterrupted:
		return "Interrupted"
	default:
		return "Error"
	}
}

// TaskResult is one task's outcome: its stats collector (so the caller can
// pull out the histogram or with-binning result it accumulated) plus a
// run summary and status.
type TaskResult[P any] struct {
	TaskIndex int
	Status    TaskStatus
	Summary   mhwalk.Summary
	Stats     mhwalk.StatsCollector[P]
	Err       error
}

// WorkerReport is one task's entry in a FullStatusReport.
type WorkerReport struct {
	TaskIndex       int
	IterK           int
	NumLivePoints   int
	AcceptanceRatio float64
	StepSize        float64
	Finished        bool
}

// FullStatusReport is delivered to the status callback at most once per
// reporting interval.
type FullStatusReport struct {
	NumCompleted      int
	NumTasks          int
	ElapsedSeconds    float64
	TotalFractionDone float64
	Workers           []WorkerReport
	Pretty            string
}

// StatusCallback receives periodic progress reports; periodic calls run on
// the dispatcher's own reporting goroutine and the final call on Run's
// calling goroutine, never concurrently with each other.
type StatusCallback func(FullStatusReport)

// progress is the lock-free shared state a task's wrapped controller
// updates and the reporting goroutine polls.
type progress struct {
	iterK       atomic.Int64
	numLive     atomic.Int64
	numAccepted atomic.Int64
	stepSizeMB  atomic.Uint64 // math.Float64bits(stepSize)
	finished    atomic.Bool
}

func (p *progress) stepSize() float64 {
	return math.Float64frombits(p.stepSizeMB.Load())
}

// Run launches cdata.NumTasks tasks, at most maxParallel concurrently, and
// blocks until all finish (a closed cancel makes each task stop at its next
// sweep boundary). If statusCB is non-nil it is invoked every interval
// (when interval > 0) from a dedicated goroutine, and once more after
// completion from the calling goroutine.
func Run[P any](cdata CData[P], maxParallel int, interval time.Duration, statusCB StatusCallback, cancel <-chan struct{}) ([]TaskResult[P], error) {
	if err := cdata.validate(); err != nil {
		return nil, err
	}
	if maxParallel < 1 {
		maxParallel = cdata.NumTasks
	}

	results := make([]TaskResult[P], cdata.NumTasks)
	progresses := make([]*progress, cdata.NumTasks)
	for i := range progresses {
		progresses[i] = &progress{}
	}

	cancelled := func() bool {
		select {
		case <-cancel:
			return true
		default:
			return false
		}
	}

	start := time.Now()
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallel)

	for i := 0; i < cdata.NumTasks; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = runTask(i, cdata, progresses[i], cancelled)
		}(i)
	}

	reportDone := make(chan struct{})
	var reporterWG sync.WaitGroup
	if statusCB != nil && interval > 0 {
		reporterWG.Add(1)
		go func() {
			defer reporterWG.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					statusCB(buildReport(cdata, progresses, start))
				case <-reportDone:
					return
				}
			}
		}()
	}

	wg.Wait()
	close(reportDone)
	reporterWG.Wait()

	if statusCB != nil {
		statusCB(buildReport(cdata, progresses, start))
	}
	return results, nil
}

func runTask[P any](taskIndex int, cdata CData[P], prog *progress, cancelled func() bool) TaskResult[P] {
	defer prog.finished.Store(true)

	seed := deriveSeed(cdata.BaseSeed, taskIndex)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic-by-design per task

	walker, stats, ctrl, walkParams, err := cdata.NewTask(taskIndex, rng)
	if err != nil {
		return TaskResult[P]{TaskIndex: taskIndex, Status: StatusError, Err: err}
	}

	reporting := &reportingController[P]{inner: ctrl, prog: prog}
	rw, err := mhwalk.New[P](walker, stats, reporting, rng, cdata.RWParams, walkParams)
	if err != nil {
		return TaskResult[P]{TaskIndex: taskIndex, Status: StatusError, Err: err}
	}

	summary, err := rw.Run(cancelled)
	status := StatusOK
	if err != nil {
		if errs.Is(err, errs.Interrupted) {
			status = StatusInterrupted
		} else {
			status = StatusError
		}
	}
	return TaskResult[P]{TaskIndex: taskIndex, Status: status, Summary: summary, Stats: stats, Err: err}
}

func buildReport[P any](cdata CData[P], progresses []*progress, start time.Time) FullStatusReport {
	workers := make([]WorkerReport, len(progresses))
	numCompleted := 0
	var fractionSum float64
	for i, p := range progresses {
		finished := p.finished.Load()
		if finished {
			numCompleted++
		}
		iterK := int(p.iterK.Load())
		numLive := int(p.numLive.Load())
		numAccepted := int(p.numAccepted.Load())
		var accept float64
		if iterK > 0 {
			accept = float64(numAccepted) / float64(iterK)
		}
		workers[i] = WorkerReport{
			TaskIndex:       i,
			IterK:           iterK,
			NumLivePoints:   numLive,
			AcceptanceRatio: accept,
			StepSize:        p.stepSize(),
			Finished:        finished,
		}
		target := cdata.RWParams.NRun
		if target > 0 {
			frac := float64(numLive) / float64(target)
			if finished || frac > 1 {
				frac = 1
			}
			fractionSum += frac
		}
	}

	report := FullStatusReport{
		NumCompleted:      numCompleted,
		NumTasks:          cdata.NumTasks,
		ElapsedSeconds:    time.Since(start).Seconds(),
		TotalFractionDone: fractionSum / float64(len(progresses)),
		Workers:           workers,
	}
	report.Pretty = renderReport(report)
	return report
}

func renderReport(r FullStatusReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d/%d tasks done, %.1f%% overall, %.1fs elapsed]\n",
		r.NumCompleted, r.NumTasks, r.TotalFractionDone*100, r.ElapsedSeconds)
	for _, w := range r.Workers {
		state := "running"
		if w.Finished {
			state = "done"
		}
		fmt.Fprintf(&b, "  task %2d: iter=%-8d live=%-6d accept=%.3f step=%.4g [%s]\n",
			w.TaskIndex, w.IterK, w.NumLivePoints, w.AcceptanceRatio, w.StepSize, state)
	}
	return b.String()
}

// deriveSeed mixes the base seed and task index with a splitmix64-style
// avalanche so adjacent task indices do not produce correlated streams
// under math/rand's default source.
func deriveSeed(baseSeed int64, taskIndex int) int64 {
	x := uint64(baseSeed) + uint64(taskIndex)*0x9E3779B97F4A7C15
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return int64(x)
}
