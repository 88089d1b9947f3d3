package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fractal/internal/escape"
)

// Bins counts the finite values of a frame in n equal-width bins spanning
// [0, max]. Non-finite values are ignored.
func Bins(frame []float64, n int) []float64 {
	bins := make([]float64, n)
	top := 0.0
	for _, v := range frame {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v > top {
			top = v
		}
	}
	for _, v := range frame {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		i := 0
		if top > 0 {
			i = min(n-1, int(v/top*float64(n)))
		}
		bins[i]++
	}
	return bins
}

// Histogram plots the distribution of frame f's display values.
func Histogram(d *escape.Display, f, width, height int) string {
	bins := Bins(d.Frame(f), max(2, width))
	return asciigraph.Plot(bins,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s distribution, frame %d", d.Mode, f)))
}

// DivergencePlot plots the diverged fraction of every frame.
func DivergencePlot(stats []escape.FrameStats, width, height int) string {
	if len(stats) < 2 {
		return ""
	}
	data := make([]float64, len(stats))
	for i, st := range stats {
		data[i] = st.DivergedFraction()
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("diverged fraction by frame"))
}
