// Package report renders a finalized figure-of-merit histogram: a bar
// chart with error whiskers (gonum.org/v1/plot), a CSV export, and a
// pretty terminal summary combining per-task convergence counts with a
// horizontal bar chart of the final distribution.
package report

import "image/color"

// Colors is the palette used by the histogram plot: the combined (final)
// histogram, the naive (simple) comparison histogram, and borders/whiskers.
// The terminal bar rendering is plain ASCII and uses no colors.
var Colors = map[string]color.RGBA{
	"final":  {R: 77, G: 121, B: 167, A: 255},  // blue
	"simple": {R: 249, G: 166, B: 77, A: 255},  // orange
	"error":  {R: 0, G: 0, B: 0, A: 255},        // black whiskers
	"border": {R: 0, G: 0, B: 0, A: 255},
}

// GetColor returns the color for a named role, or gray if unknown.
func GetColor(role string) color.RGBA {
	if c, ok := Colors[role]; ok {
		return c
	}
	return color.RGBA{R: 128, G: 128, B: 128, A: 255}
}
