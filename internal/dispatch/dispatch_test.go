package dispatch

import (
	"math/rand"
	"testing"
	"time"

	"github.com/causalgo/tomomc/internal/control"
	"github.com/causalgo/tomomc/internal/mhwalk"
	"github.com/causalgo/tomomc/internal/valuehist"
	"github.com/causalgo/tomomc/internal/vhist"
)

type gaussWalker struct{}

func (gaussWalker) StartPoint() float64 { return 0 }
func (gaussWalker) JumpFn(rng *rand.Rand, cur float64, p mhwalk.Params) float64 {
	return cur + (rng.Float64()*2-1)*p.StepSize
}
func (gaussWalker) Init()                                {}
func (gaussWalker) ThermalizingDone()                    {}
func (gaussWalker) Done()                                {}
func (gaussWalker) FnLogValue(x float64) (float64, error) { return -0.5 * x * x, nil }

func newTaskFactory() TaskFactory[float64] {
	return func(taskIndex int, rng *rand.Rand) (mhwalk.Walker[float64], mhwalk.StatsCollector[float64], mhwalk.Controller[float64], mhwalk.Params, error) {
		calc := valuehist.ValueCalculator[float64](identityCalc{})
		stats, err := valuehist.NewBasic[float64](calc, vhist.Params{Min: -3, Max: 3, NumBins: 12})
		if err != nil {
			return nil, nil, nil, mhwalk.Params{}, err
		}
		return gaussWalker{}, stats, control.AlwaysDoneController[float64]{}, mhwalk.Params{StepSize: 1.0}, nil
	}
}

type identityCalc struct{}

func (identityCalc) GetValue(p float64) (float64, error) { return p, nil }

func TestRunProducesOneResultPerTask(t *testing.T) {
	cdata := CData[float64]{
		BaseSeed: 42,
		NumTasks: 4,
		RWParams: mhwalk.RWParams{NSweep: 5, NTherm: 20, NRun: 100},
		NewTask:  newTaskFactory(),
	}
	results, err := Run[float64](cdata, 2, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, r := range results {
		if r.Status != StatusOK {
			t.Errorf("task %d status = %v, want OK (err=%v)", i, r.Status, r.Err)
		}
		if r.Summary.NumLivePoints != 100 {
			t.Errorf("task %d NumLivePoints = %d, want 100", i, r.Summary.NumLivePoints)
		}
	}
}

func TestRunDeterministicAcrossRepeats(t *testing.T) {
	cdata := CData[float64]{
		BaseSeed: 7,
		NumTasks: 2,
		RWParams: mhwalk.RWParams{NSweep: 3, NTherm: 10, NRun: 50},
		NewTask:  newTaskFactory(),
	}
	r1, err := Run[float64](cdata, 0, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Run[float64](cdata, 0, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range r1 {
		b1 := r1[i].Stats.(*valuehist.Basic[float64]).Histogram()
		b2 := r2[i].Stats.(*valuehist.Basic[float64]).Histogram()
		for j := range b1.Bins {
			if b1.Bins[j] != b2.Bins[j] {
				t.Fatalf("task %d bin %d differs across identical-seed repeats: %v vs %v", i, j, b1.Bins[j], b2.Bins[j])
			}
		}
	}
}

func TestRunStatusCallback(t *testing.T) {
	cdata := CData[float64]{
		BaseSeed: 1,
		NumTasks: 2,
		RWParams: mhwalk.RWParams{NSweep: 5, NTherm: 50, NRun: 2000},
		NewTask:  newTaskFactory(),
	}
	var reports []FullStatusReport
	_, err := Run[float64](cdata, 0, 5*time.Millisecond, func(r FullStatusReport) {
		reports = append(reports, r)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) == 0 {
		t.Fatal("expected at least one status report")
	}
	last := reports[len(reports)-1]
	if last.NumCompleted != 2 {
		t.Errorf("final report NumCompleted = %d, want 2", last.NumCompleted)
	}
	if last.Pretty == "" {
		t.Error("expected non-empty pretty report")
	}
}

func TestRunCancellation(t *testing.T) {
	cdata := CData[float64]{
		BaseSeed: 3,
		NumTasks: 2,
		RWParams: mhwalk.RWParams{NSweep: 5, NTherm: 100000, NRun: 100000},
		NewTask:  newTaskFactory(),
	}
	cancel := make(chan struct{})
	close(cancel)
	results, err := Run[float64](cdata, 0, 0, nil, cancel)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Status != StatusInterrupted {
			t.Errorf("task %d status = %v, want Interrupted", i, r.Status)
		}
	}
}

func TestCDataValidate(t *testing.T) {
	bad := CData[float64]{NumTasks: 0, RWParams: mhwalk.RWParams{NSweep: 1, NRun: 1}, NewTask: newTaskFactory()}
	if err := bad.validate(); err == nil {
		t.Error("expected error for NumTasks=0")
	}
	bad2 := CData[float64]{NumTasks: 1, RWParams: mhwalk.RWParams{NSweep: 1, NRun: 1}, NewTask: nil}
	if err := bad2.validate(); err == nil {
		t.Error("expected error for nil NewTask")
	}
}

func TestDeriveSeedVariesByTaskIndex(t *testing.T) {
	a := deriveSeed(100, 0)
	b := deriveSeed(100, 1)
	if a == b {
		t.Error("expected different seeds for different task indices")
	}
}
