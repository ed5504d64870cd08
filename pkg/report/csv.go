package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/vhist"
)

// WriteCSV writes one row per histogram bin: bin center value, bin count,
// the combined (final) error bar, and, if simple is non-nil, the naive
// inter-task error bar for comparison.
func WriteCSV(w io.Writer, final, simple *vhist.WithErrorBars) error {
	if final == nil {
		return errs.New(errs.InvalidArgument, "WriteCSV: final histogram is nil")
	}
	header := []string{"value", "counts", "error"}
	if simple != nil {
		header = append(header, "simple_error")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errs.Wrap(errs.InvalidInput, err, "WriteCSV: writing header")
	}

	for i := 0; i < final.Params.NumBins; i++ {
		row := []string{
			strconv.FormatFloat(final.Params.BinCenterValue(i), 'g', -1, 64),
			strconv.FormatFloat(final.Bins[i], 'g', -1, 64),
			strconv.FormatFloat(final.Delta[i], 'g', -1, 64),
		}
		if simple != nil {
			row = append(row, strconv.FormatFloat(simple.Delta[i], 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return errs.Wrap(errs.InvalidInput, err, "WriteCSV: writing row %d", i)
		}
	}
	cw.Flush()
	return cw.Error()
}
