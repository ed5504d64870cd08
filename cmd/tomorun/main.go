// Command tomorun runs a Metropolis-Hastings histogram estimate of a
// figure of merit (fidelity, trace distance, purified distance, or a
// user-named observable) against an independent-measurement tomography
// data file, repeating the walk across several tasks and combining the
// results into one error-barred histogram.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/causalgo/tomomc/internal/aggregate"
	"github.com/causalgo/tomomc/internal/control"
	"github.com/causalgo/tomomc/internal/dispatch"
	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/mhwalk"
	"github.com/causalgo/tomomc/internal/valuehist"
	"github.com/causalgo/tomomc/internal/vhist"
	"github.com/causalgo/tomomc/pkg/matdata"
	"github.com/causalgo/tomomc/pkg/qubit"
	"github.com/causalgo/tomomc/pkg/report"
)

// version is the tomorun release identifier printed by --version.
const version = "0.1.0"

const (
	exitOK             = 0
	exitDataReadError  = 1
	exitMissingInput   = 3
	exitBadOption      = 127
)

type options struct {
	dataFileName     string
	valueType        string
	valueHist        string
	noBinningErrors  bool
	binningNumLevels int
	stepSize         float64
	nSweep           int
	nTherm           int
	nRun             int
	nRepeats         int
	nChunk           int
	measAmplify      float64
	writeHistogram   string
	writePlot        string
	verbose          bool
	configPath       string
	showVersion      bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("tomorun", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := options{}

	fs.StringVar(&opts.dataFileName, "data-file-name", "", "path to the .mat tomography data file (required)")
	fs.StringVar(&opts.valueType, "value-type", "fidelity", "figure of merit: fidelity|purif-dist|tr-dist|observable[:ref-name]")
	fs.StringVar(&opts.valueHist, "value-hist", "0:1/50", "histogram range and bin count as min:max/nbins")
	fs.BoolVar(&opts.noBinningErrors, "no-binning-analysis-error-bars", false, "skip binning-analysis error estimation (coarsened to a single level)")
	fs.IntVar(&opts.binningNumLevels, "binning-analysis-num-levels", 8, "number of binning-analysis levels")
	fs.Float64Var(&opts.stepSize, "step-size", 0.04, "initial MH proposal step size")
	fs.IntVar(&opts.nSweep, "n-sweep", 50, "iterations per sweep between adjustments")
	fs.IntVar(&opts.nTherm, "n-therm", 1024, "thermalization sweeps")
	fs.IntVar(&opts.nRun, "n-run", 32768, "sampling sweeps")
	fs.IntVar(&opts.nRepeats, "n-repeats", 20, "number of independent tasks")
	fs.IntVar(&opts.nChunk, "n-chunk", 0, "max tasks running concurrently (0 = unlimited)")
	fs.Float64Var(&opts.measAmplify, "n-meas-amplify-factor", 1, "scale factor applied to observed measurement counts")
	fs.StringVar(&opts.writeHistogram, "write-histogram", "", "write the final histogram as CSV to this path")
	fs.StringVar(&opts.writePlot, "write-plot", "", "write a plot of the final histogram (.png/.svg/.pdf)")
	fs.BoolVar(&opts.verbose, "verbose", false, "print per-task progress and the final report")
	fs.StringVar(&opts.configPath, "config", "", "read additional key=value flag assignments from this file")
	fs.BoolVar(&opts.showVersion, "version", false, "print the version and exit")
	fs.Uint64Var(new(uint64), "nice", 0, "accepted for compatibility; this build does not adjust OS scheduling priority")
	fs.StringVar(new(string), "log", "", "accepted for compatibility; this build logs to stderr only")

	if err := fs.Parse(args); err != nil {
		return exitBadOption
	}
	if opts.configPath != "" {
		if err := applyConfigFile(fs, opts.configPath); err != nil {
			fmt.Fprintln(stderr, err)
			return exitBadOption
		}
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, "tomorun", version)
		return exitOK
	}
	if opts.dataFileName == "" {
		fmt.Fprintln(stderr, "tomorun: --data-file-name is required")
		return exitMissingInput
	}

	if err := execute(opts, stdout, stderr); err != nil {
		if errs.Is(err, errs.InvalidInput) {
			fmt.Fprintln(stderr, "tomorun:", err)
			return exitDataReadError
		}
		fmt.Fprintln(stderr, "tomorun:", err)
		return exitBadOption
	}
	return exitOK
}

// applyConfigFile reads "flag-name value" or "flag-name=value" lines (# and
// blank lines ignored) and sets them on fs, the same minimal syntax
// go build's GOFLAGS-style config files use.
func applyConfigFile(fs *flag.FlagSet, path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: path is user-provided intentionally
	if err != nil {
		return errs.Wrap(errs.InvalidInput, err, "reading --config file")
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var name, value string
		if idx := strings.IndexByte(line, '='); idx >= 0 {
			name, value = line[:idx], line[idx+1:]
		} else if idx := strings.IndexByte(line, ' '); idx >= 0 {
			name, value = line[:idx], strings.TrimSpace(line[idx+1:])
		} else {
			name, value = line, "true"
		}
		if err := fs.Set(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return errs.Wrap(errs.InvalidArgument, err, "config file %s", path)
		}
	}
	return sc.Err()
}

func execute(opts options, stdout, stderr *os.File) error {
	data, err := matdata.LoadExperimentData(opts.dataFileName)
	if err != nil {
		return err
	}

	counts := make([]float64, len(data.Counts))
	for i, c := range data.Counts {
		counts[i] = c * opts.measAmplify
	}
	llh, err := qubit.NewIndepMeasLLH(data.Effects, counts)
	if err != nil {
		return err
	}

	calc, err := resolveCalculator(opts, data)
	if err != nil {
		return err
	}

	histParams, err := parseValueHist(opts.valueHist)
	if err != nil {
		return err
	}

	numLevels := opts.binningNumLevels
	if opts.noBinningErrors {
		numLevels = 1
	}

	rwParams := mhwalk.RWParams{NSweep: opts.nSweep, NTherm: opts.nTherm, NRun: opts.nRun}
	startT := qubit.Identity(data.Dim)

	factory := func(taskIndex int, rng *rand.Rand) (mhwalk.Walker[qubit.Point], mhwalk.StatsCollector[qubit.Point], mhwalk.Controller[qubit.Point], mhwalk.Params, error) {
		walker, err := qubit.NewWalker(data.Dim, qubit.JumpFull, startT, llh)
		if err != nil {
			return nil, nil, nil, mhwalk.Params{}, err
		}
		stats, err := valuehist.NewWithBinning[qubit.Point](calc, histParams, numLevels)
		if err != nil {
			return nil, nil, nil, mhwalk.Params{}, err
		}
		stepCtrl, err := control.NewStepSizeController[qubit.Point](0.20, 0.35, 0.15, 0.40, 1.1, 10, 0.5)
		if err != nil {
			return nil, nil, nil, mhwalk.Params{}, err
		}
		ctrl, err := control.New[qubit.Point](stepCtrl)
		if err != nil {
			return nil, nil, nil, mhwalk.Params{}, err
		}
		return walker, stats, ctrl, mhwalk.Params{StepSize: opts.stepSize}, nil
	}

	cdata := dispatch.CData[qubit.Point]{
		BaseSeed: time.Now().UnixNano(),
		NumTasks: opts.nRepeats,
		RWParams: rwParams,
		NewTask:  factory,
	}

	cancel := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(cancel)
	}()
	defer signal.Stop(sigCh)

	var statusCB dispatch.StatusCallback
	if opts.verbose {
		statusCB = func(r dispatch.FullStatusReport) {
			fmt.Fprintln(stderr, r.Pretty)
		}
	}

	results, err := dispatch.Run(cdata, opts.nChunk, time.Second, statusCB, cancel)
	if err != nil {
		return err
	}

	agg, err := aggregate.Aggregate[qubit.Point](histParams, results)
	if err != nil {
		return err
	}

	if opts.verbose {
		fmt.Fprintln(stdout, report.RenderReport(agg, 40))
	}
	if opts.writeHistogram != "" {
		f, err := os.Create(opts.writeHistogram) //nolint:gosec // G304: path is user-provided intentionally
		if err != nil {
			return errs.Wrap(errs.InvalidInput, err, "creating --write-histogram output")
		}
		defer f.Close()
		if err := report.WriteCSV(f, agg.Final, agg.Simple); err != nil {
			return err
		}
	}
	if opts.writePlot != "" {
		p, err := report.HistogramPlot(agg.Final, report.DefaultPlotOptions())
		if err != nil {
			return err
		}
		if err := report.SavePlot(p, opts.writePlot, 10, 6); err != nil {
			return err
		}
	}

	return nil
}

// resolveCalculator parses --value-type=<kind>[:ref-name] and builds the
// corresponding qubit.Calculator, defaulting the reference state to
// data.RhoMLE unless a named alternative is given.
func resolveCalculator(opts options, data *matdata.ExperimentData) (qubit.Calculator, error) {
	kind, refName, _ := strings.Cut(opts.valueType, ":")

	ref := data.RhoMLE
	if refName != "" {
		mf, err := matdata.Open(opts.dataFileName)
		if err != nil {
			return nil, err
		}
		defer mf.Close()
		ref, err = mf.GetNamedObservable(refName)
		if err != nil {
			return nil, err
		}
	}

	switch kind {
	case "fidelity":
		return qubit.NewFidelityToRef(ref)
	case "purif-dist":
		return qubit.NewPurifDistToRef(ref)
	case "tr-dist":
		return qubit.NewTrDistToRef(ref), nil
	case "observable":
		if refName == "" {
			return nil, errs.New(errs.InvalidArgument, "--value-type=observable requires :ref-name naming the observable variable")
		}
		return qubit.NewObservableValue(ref)
	default:
		return nil, errs.New(errs.InvalidArgument, "unknown --value-type %q", kind)
	}
}

// parseValueHist parses "min:max/nbins" into vhist.Params.
func parseValueHist(s string) (vhist.Params, error) {
	rangePart, binsPart, ok := strings.Cut(s, "/")
	if !ok {
		return vhist.Params{}, errs.New(errs.InvalidArgument, "--value-hist must look like min:max/nbins, got %q", s)
	}
	minStr, maxStr, ok := strings.Cut(rangePart, ":")
	if !ok {
		return vhist.Params{}, errs.New(errs.InvalidArgument, "--value-hist must look like min:max/nbins, got %q", s)
	}
	minV, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return vhist.Params{}, errs.Wrap(errs.InvalidArgument, err, "--value-hist min")
	}
	maxV, err := strconv.ParseFloat(maxStr, 64)
	if err != nil {
		return vhist.Params{}, errs.Wrap(errs.InvalidArgument, err, "--value-hist max")
	}
	nbins, err := strconv.Atoi(binsPart)
	if err != nil {
		return vhist.Params{}, errs.Wrap(errs.InvalidArgument, err, "--value-hist nbins")
	}
	p := vhist.Params{Min: minV, Max: maxV, NumBins: nbins}
	return p, p.Validate()
}
