package report

import (
	"fmt"
	"strings"

	"github.com/causalgo/tomomc/internal/aggregate"
	"github.com/causalgo/tomomc/internal/dispatch"
	"github.com/causalgo/tomomc/internal/vhist"
)

// ShortBar renders fraction (clamped to [0,1]) as a fixed-width ASCII bar,
// e.g. ShortBar(0.375, 16) = "######----------".
func ShortBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}

// PerTaskLine renders one task's status line: its acceptance ratio as a
// bar, and its binning-analysis convergence breakdown.
func PerTaskLine(ts aggregate.TaskSummary, barWidth int) string {
	status := "ok"
	switch ts.Status {
	case dispatch.StatusInterrupted:
		status = "interrupted"
	case dispatch.StatusError:
		status = "error"
	}
	if ts.Status != dispatch.StatusOK {
		return fmt.Sprintf("task %3d: %-11s", ts.TaskIndex, status)
	}
	bar := ShortBar(ts.Summary.AcceptanceRatio, barWidth)
	cc := ts.ConvergedCounts
	return fmt.Sprintf("task %3d: accept=%.3f [%s] unknown=%d(%d not isolated) not_converged=%d",
		ts.TaskIndex, ts.Summary.AcceptanceRatio, bar,
		cc.Unknown, cc.UnknownNotIsolated, cc.NotConverged)
}

// RenderHistogramBars renders a horizontal ASCII bar chart of hist's
// normalized values, one line per bin, scaled so the tallest bin fills
// width characters.
func RenderHistogramBars(hist *vhist.WithErrorBars, width int) string {
	norm := hist.Normalized()
	maxV := 0.0
	for _, v := range norm {
		if v > maxV {
			maxV = v
		}
	}
	var sb strings.Builder
	for i, v := range norm {
		frac := 0.0
		if maxV > 0 {
			frac = v / maxV
		}
		fmt.Fprintf(&sb, "[%10.4g, %10.4g) %s  %.4g +/- %.2g\n",
			hist.Params.BinLowerValue(i), hist.Params.BinUpperValue(i),
			ShortBar(frac, width), v, hist.Delta[i])
	}
	return sb.String()
}

// RenderReport produces the full terminal summary: one line per task, then
// a horizontal bar chart of the final combined histogram.
func RenderReport(result *aggregate.Result, barWidth int) string {
	var sb strings.Builder
	for _, ts := range result.PerTask {
		sb.WriteString(PerTaskLine(ts, barWidth))
		sb.WriteByte('\n')
	}
	sb.WriteString("\nfinal histogram:\n")
	sb.WriteString(RenderHistogramBars(result.Final, barWidth))
	return sb.String()
}
