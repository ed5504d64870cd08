package report

import (
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/causalgo/tomomc/internal/errs"
)

// SavePlot saves a plot to a file, detecting the format (.png, .svg, .pdf)
// from the filename's extension.
func SavePlot(p *plot.Plot, filename string, width, height float64) error {
	if p == nil {
		return errs.New(errs.InvalidArgument, "SavePlot: plot is nil")
	}
	if width <= 0 || height <= 0 {
		return errs.New(errs.InvalidArgument, "SavePlot: invalid dimensions width=%v height=%v", width, height)
	}

	dir := filepath.Dir(filename)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errs.Wrap(errs.InvalidInput, err, "SavePlot: creating directory %s", dir)
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".svg", ".pdf":
		w := vg.Length(width) * vg.Inch
		h := vg.Length(height) * vg.Inch
		if err := p.Save(w, h, filename); err != nil {
			return errs.Wrap(errs.InvalidInput, err, "SavePlot: writing %s", filename)
		}
		return nil
	default:
		return errs.New(errs.InvalidArgument, "SavePlot: unsupported format %q (use .png, .svg or .pdf)", ext)
	}
}
