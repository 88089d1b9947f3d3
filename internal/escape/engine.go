package escape

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Engine holds the per-point orbit values and iteration counts of every
// frame together with the per-frame parameters they evolve under.
type Engine struct {
	shape  Shape
	window Window
	kind   Kind

	scale []float64
	shift []complex128
	// offset is only read by InitMandelbrot; the param grid carries it after.
	offset []complex128

	power      []complex128 // per frame
	threshold  []float64    // per frame
	frameParam []complex128 // per frame label
	param      []complex128 // per point

	value []complex128
	count []uint32

	totalSteps int
	observer   Observer
	workers    int
}

// New validates opts and allocates zeroed grids of shape
// (opts.Frames, opts.Width, opts.Height). One of the init methods must run
// before the engine can be advanced.
func New(opts Options) (*Engine, error) {
	if err := opts.Window.validate(); err != nil {
		return nil, err
	}
	if opts.Frames <= 0 {
		return nil, invalidParam("frames", "must be positive, got %d", opts.Frames)
	}

	scale, err := opts.Scale.Or(1).Resolve("scale", opts.Frames)
	if err != nil {
		return nil, err
	}
	shift, err := opts.Shift.Or(0).Resolve("shift", opts.Frames)
	if err != nil {
		return nil, err
	}

	offset, err := opts.Offset.Or(0).Resolve("offset", opts.Frames)
	if err != nil {
		return nil, err
	}

	shape := Shape{Frames: opts.Frames, Width: opts.Width, Height: opts.Height}
	return &Engine{
		shape:  shape,
		window: opts.Window,
		scale:  scale,
		shift:  shift,
		offset: offset,
		param:  make([]complex128, shape.Len()),
		value:  make([]complex128, shape.Len()),
		count:  make([]uint32, shape.Len()),
	}, nil
}

func (e *Engine) SetObserver(o Observer) { e.observer = o }

// SetWorkers caps the goroutines used per round; n <= 0 means one per CPU.
func (e *Engine) SetWorkers(n int) { e.workers = n }

func (e *Engine) Shape() Shape      { return e.shape }
func (e *Engine) Window() Window    { return e.window }
func (e *Engine) Kind() Kind        { return e.kind }
func (e *Engine) TotalSteps() int   { return e.totalSteps }
func (e *Engine) Initialized() bool { return e.kind != KindNone }

func (e *Engine) Value(f, x, y int) complex128 { return e.value[e.shape.Index(f, x, y)] }
func (e *Engine) Count(f, x, y int) uint32     { return e.count[e.shape.Index(f, x, y)] }

// Values returns a copy of the orbit value grid in (frame, x, y) order.
func (e *Engine) Values() []complex128 {
	c := make([]complex128, len(e.value))
	copy(c, e.value)
	return c
}

// Counts returns a copy of the iteration count grid in (frame, x, y) order.
func (e *Engine) Counts() []uint32 {
	c := make([]uint32, len(e.count))
	copy(c, e.count)
	return c
}

// FrameParam is the additive parameter used for frame f. In Mandelbrot mode
// every pixel has its own parameter and the one at pixel (0, 0) is reported.
func (e *Engine) FrameParam(f int) complex128 {
	if e.frameParam != nil {
		return e.frameParam[f]
	}
	return e.param[e.shape.Index(f, 0, 0)]
}

func (e *Engine) FrameParams() []complex128 {
	out := make([]complex128, e.shape.Frames)
	for f := range out {
		out[f] = e.FrameParam(f)
	}
	return out
}

func (e *Engine) FramePower(f int) complex128 { return e.power[f] }

// InitJulia seeds every point with its scaled and shifted plane coordinate;
// all points of a frame share power[f] and param[f].
func (e *Engine) InitJulia(power, param Series[complex128], threshold Series[float64]) error {
	if e.kind != KindNone {
		return ErrAlreadyInitialized
	}
	pw, thr, err := e.resolveCommon(power, threshold)
	if err != nil {
		return err
	}
	par, err := param.Resolve("param", e.shape.Frames)
	if err != nil {
		return err
	}

	xs, ys := e.axes()
	for f := 0; f < e.shape.Frames; f++ {
		s, d := e.scale[f], e.shift[f]
		for i, x := range xs {
			for j, y := range ys {
				idx := e.shape.Index(f, i, j)
				e.value[idx] = complex(s*x, s*y) + d
				e.param[idx] = par[f]
			}
		}
	}

	e.power, e.threshold, e.frameParam = pw, thr, par
	e.kind = KindJulia
	return nil
}

// InitMandelbrot starts every point of frame f at shift[f] and makes the
// scaled plane coordinate of each pixel, moved by offset[f], its additive
// parameter.
func (e *Engine) InitMandelbrot(power Series[complex128], threshold Series[float64]) error {
	if e.kind != KindNone {
		return ErrAlreadyInitialized
	}
	pw, thr, err := e.resolveCommon(power, threshold)
	if err != nil {
		return err
	}

	xs, ys := e.axes()
	for f := 0; f < e.shape.Frames; f++ {
		s, d, o := e.scale[f], e.shift[f], e.offset[f]
		for i, x := range xs {
			for j, y := range ys {
				idx := e.shape.Index(f, i, j)
				e.value[idx] = d
				e.param[idx] = complex(s*x, s*y) + o
			}
		}
	}

	e.power, e.threshold, e.frameParam = pw, thr, nil
	e.kind = KindMandelbrot
	return nil
}

func (e *Engine) resolveCommon(power Series[complex128], threshold Series[float64]) ([]complex128, []float64, error) {
	pw, err := power.Resolve("power", e.shape.Frames)
	if err != nil {
		return nil, nil, err
	}
	thr, err := threshold.Resolve("divergence threshold", e.shape.Frames)
	if err != nil {
		return nil, nil, err
	}
	for f, t := range thr {
		if !(t > 0) {
			return nil, nil, invalidParam("divergence threshold", "frame %d: must be positive, got %v", f, t)
		}
	}
	return pw, thr, nil
}

func (e *Engine) axes() (xs, ys []float64) {
	w := e.window
	return linspace(w.Xmin, w.Xmax, w.Width), linspace(w.Ymin, w.Ymax, w.Height)
}

// Stats reports per-frame divergence counts. A point counts as undiverged
// when it has been updated on every round so far.
func (e *Engine) Stats() []FrameStats {
	stats := make([]FrameStats, e.shape.Frames)
	plane := e.shape.Plane()
	total := uint64(e.totalSteps)
	for f := range stats {
		st := FrameStats{Frame: f}
		sum := 0.0
		for _, c := range e.count[f*plane : (f+1)*plane] {
			if uint64(c) == total {
				st.Undiverged++
			} else {
				st.Diverged++
			}
			if c > st.MaxCount {
				st.MaxCount = c
			}
			sum += float64(c)
		}
		st.MeanCount = sum / float64(plane)
		stats[f] = st
	}
	return stats
}

// Snapshot is the complete resumable state of an Engine between rounds.
type Snapshot struct {
	Shape      Shape
	Window     Window
	Kind       Kind
	Scale      []float64
	Shift      []complex128
	Power      []complex128
	Threshold  []float64
	FrameParam []complex128
	Param      []complex128
	Value      []complex128
	Count      []uint32
	TotalSteps int
}

func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		Shape:      e.shape,
		Window:     e.window,
		Kind:       e.kind,
		Scale:      cloneSlice(e.scale),
		Shift:      cloneSlice(e.shift),
		Power:      cloneSlice(e.power),
		Threshold:  cloneSlice(e.threshold),
		FrameParam: cloneSlice(e.frameParam),
		Param:      cloneSlice(e.param),
		Value:      cloneSlice(e.value),
		Count:      cloneSlice(e.count),
		TotalSteps: e.totalSteps,
	}
}

// Restore rebuilds an Engine from a snapshot taken by Snapshot.
func Restore(s *Snapshot) (*Engine, error) {
	if s == nil {
		return nil, invalidParam("snapshot", "nil")
	}
	if err := s.Window.validate(); err != nil {
		return nil, err
	}
	if s.Shape.Frames <= 0 || s.Shape.Width != s.Window.Width || s.Shape.Height != s.Window.Height {
		return nil, invalidParam("snapshot", "shape %s does not match window %dx%d", s.Shape, s.Window.Width, s.Window.Height)
	}
	if s.Kind == KindNone {
		return nil, fmt.Errorf("restore: %w", ErrNotInitialized)
	}
	n, frames := s.Shape.Len(), s.Shape.Frames
	if len(s.Value) != n || len(s.Count) != n || len(s.Param) != n {
		return nil, invalidParam("snapshot", "grid lengths do not match shape %s", s.Shape)
	}
	if len(s.Scale) != frames || len(s.Shift) != frames || len(s.Power) != frames || len(s.Threshold) != frames {
		return nil, invalidParam("snapshot", "per-frame lengths do not match %d frames", frames)
	}
	if s.FrameParam != nil && len(s.FrameParam) != frames {
		return nil, invalidParam("snapshot", "%d frame params for %d frames", len(s.FrameParam), frames)
	}
	if s.TotalSteps < 0 {
		return nil, invalidParam("snapshot", "negative step total %d", s.TotalSteps)
	}

	return &Engine{
		shape:      s.Shape,
		window:     s.Window,
		kind:       s.Kind,
		scale:      cloneSlice(s.Scale),
		shift:      cloneSlice(s.Shift),
		power:      cloneSlice(s.Power),
		threshold:  cloneSlice(s.Threshold),
		frameParam: cloneSlice(s.FrameParam),
		param:      cloneSlice(s.Param),
		value:      cloneSlice(s.Value),
		count:      cloneSlice(s.Count),
		totalSteps: s.TotalSteps,
	}, nil
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	c := make([]T, len(s))
	copy(c, s)
	return c
}

// pow computes z^p with exact products for the common integer powers.
func pow(z, p complex128) complex128 {
	if imag(p) == 0 {
		switch real(p) {
		case 1:
			return z
		case 2:
			return z * z
		case 3:
			return z * z * z
		case 4:
			z2 := z * z
			return z2 * z2
		}
	}
	return cmplx.Pow(z, p)
}

func maxAbs(vs []complex128) float64 {
	m := math.Inf(-1)
	for _, v := range vs {
		if a := cmplx.Abs(v); a > m {
			m = a
		}
	}
	return m
}
