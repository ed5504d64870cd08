package report

import (
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/vhist"
)

// PlotOptions configures a histogram plot's appearance.
type PlotOptions struct {
	Title      string
	Width      float64
	Height     float64
	ShowErrors bool
}

// DefaultPlotOptions returns the usual 10x6 inch plot with error whiskers.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Title: "Figure of merit distribution", Width: 10, Height: 6, ShowErrors: true}
}

// errorBarData adapts a WithErrorBars histogram's bin centers/normalized
// values/deltas to gonum/plot's XYErrorer.
type errorBarData struct {
	x, y, delta []float64
}

func (d errorBarData) Len() int                      { return len(d.x) }
func (d errorBarData) XY(i int) (float64, float64)    { return d.x[i], d.y[i] }
func (d errorBarData) YError(i int) (float64, float64) { return d.delta[i], d.delta[i] }

// HistogramPlot renders a bar chart of hist's normalized bin values, with
// error whiskers drawn from hist.Delta when opts.ShowErrors is set.
func HistogramPlot(hist *vhist.WithErrorBars, opts PlotOptions) (*plot.Plot, error) {
	if hist == nil {
		return nil, errs.New(errs.InvalidArgument, "HistogramPlot: histogram is nil")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "probability density"

	values := plotter.Values(hist.Normalized())
	bars, err := plotter.NewBarChart(values, vg.Points(barWidth(len(values))))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "HistogramPlot: building bar chart")
	}
	bars.Color = GetColor("final")
	bars.LineStyle.Width = vg.Points(1)
	bars.LineStyle.Color = GetColor("border")
	p.Add(bars)

	n := hist.Params.NumBins
	centers := make([]float64, n)
	for i := 0; i < n; i++ {
		centers[i] = float64(i) // bar chart positions bars at integer offsets
	}
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = formatBinLabel(hist.Params.BinCenterValue(i))
	}
	p.NominalX(labels...)

	if opts.ShowErrors && floats.Sum(hist.Delta) > 0 {
		eb, err := plotter.NewYErrorBars(errorBarData{x: centers, y: values, delta: hist.Delta})
		if err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, err, "HistogramPlot: building error bars")
		}
		eb.Color = GetColor("error")
		p.Add(eb)
	}

	return p, nil
}

func barWidth(numBins int) float64 {
	if numBins <= 0 {
		return 20
	}
	w := 400.0 / float64(numBins)
	if w < 4 {
		w = 4
	}
	if w > 40 {
		w = 40
	}
	return w
}

func formatBinLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}
