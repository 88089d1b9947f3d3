package escape

import (
	"math"
	"math/cmplx"
)

// Display is a real-valued (frame, x, y) array derived from the engine
// grids. It never aliases engine memory.
type Display struct {
	Shape  Shape
	Mode   DisplayMode
	Data   []float64
	Params []complex128 // additive parameter per frame, for labeling
}

func (d *Display) At(f, x, y int) float64 { return d.Data[d.Shape.Index(f, x, y)] }

// Frame returns the slice of Data holding frame f.
func (d *Display) Frame(f int) []float64 {
	plane := d.Shape.Plane()
	return d.Data[f*plane : (f+1)*plane]
}

// SelectDisplay derives a display array according to mode.
//
// With normalize set, the first two pixels of every frame ((0,0) and the
// next pixel in (x, y) order) are overwritten in the engine grids with the
// minimum and maximum reference values before selection, so per-frame color
// scaling is comparable across frames. This mutation is permanent.
func (e *Engine) SelectDisplay(mode DisplayMode, normalize bool) (*Display, error) {
	if _, err := ParseDisplayMode(string(mode)); err != nil {
		return nil, err
	}
	if e.kind == KindNone {
		return nil, ErrNotInitialized
	}

	if normalize {
		e.pinReferencePixels()
	}

	out := make([]float64, len(e.count))
	switch mode {
	case ShowIterations:
		e.fillCounts(out)

	case ShowArray:
		for i, v := range e.value {
			out[i] = cmplx.Abs(v)
		}

	case ShowUndiverged:
		e.fillUndiverged(out)

	case ShowNested:
		e.fillCounts(out)
		e.fillUndiverged(out)

	case ShowDiverged:
		total := uint64(e.totalSteps)
		for i, c := range e.count {
			if uint64(c) != total {
				out[i] = float64(c)
			}
		}

	case ShowWTF:
		total := uint64(e.totalSteps)
		for i, c := range e.count {
			if uint64(c) <= total {
				out[i] = float64(c)
			}
		}
	}

	return &Display{
		Shape:  e.shape,
		Mode:   mode,
		Data:   out,
		Params: e.FrameParams(),
	}, nil
}

func (e *Engine) fillCounts(out []float64) {
	for i, c := range e.count {
		out[i] = float64(c)
	}
}

// fillUndiverged writes the rescaled magnitude of every never-diverged point
// into out and leaves the other entries alone. Magnitudes are divided by the
// largest undiverged magnitude and multiplied by the largest count; a zero
// divisor yields NaN or Inf, which the renderer clips.
func (e *Engine) fillUndiverged(out []float64) {
	total := uint64(e.totalSteps)
	peak := math.Inf(-1)
	var top uint32
	for i, c := range e.count {
		if c > top {
			top = c
		}
		if uint64(c) == total {
			if a := cmplx.Abs(e.value[i]); a > peak {
				peak = a
			}
		}
	}

	scale := float64(top)
	for i, c := range e.count {
		if uint64(c) == total {
			out[i] = cmplx.Abs(e.value[i]) / peak * scale
		}
	}
}

func (e *Engine) pinReferencePixels() {
	plane := e.shape.Plane()
	for f := 0; f < e.shape.Frames; f++ {
		base := f * plane
		e.count[base] = 0
		e.value[base] = 0
		if plane > 1 {
			e.count[base+1] = uint32(e.totalSteps)
		}
	}
	if plane < 2 {
		return
	}
	peak := maxAbs(e.value)
	for f := 0; f < e.shape.Frames; f++ {
		e.value[f*plane+1] = complex(peak, 0)
	}
}
