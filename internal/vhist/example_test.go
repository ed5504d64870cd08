package vhist_test

import (
	"fmt"

	"github.com/causalgo/tomomc/internal/vhist"
)

func ExampleHistogram_Record() {
	h, _ := vhist.New(vhist.Params{Min: 0, Max: 1, NumBins: 4})
	for _, v := range []float64{0.1, 0.3, 0.3, 1.5} {
		h.Record(v, 1)
	}
	fmt.Println(h.Bins, h.OffChart)
	// Output: [1 2 0 0] 1
}

func ExampleAveraged() {
	p := vhist.Params{Min: 0, Max: 1, NumBins: 2}
	avg, _ := vhist.NewAveraged(p)

	a, _ := vhist.New(p)
	_ = a.Load([]float64{10, 20}, 0)
	b, _ := vhist.New(p)
	_ = b.Load([]float64{12, 18}, 0)

	_ = avg.AddHistogram(a)
	_ = avg.AddHistogram(b)
	_ = avg.Finalize()

	res, _ := avg.Result()
	fmt.Println(res.Bins)
	// Output: [11 19]
}
