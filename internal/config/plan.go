package config

import (
	"cmp"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/fractal/internal/escape"
	"github.com/tanema/gween/ease"
)

// Plan is a validated run: engine construction parameters plus what the
// renderer needs.
type Plan struct {
	Kind      escape.Kind
	Options   escape.Options
	Power     escape.Series[complex128]
	Param     escape.Series[complex128]
	Threshold escape.Series[float64]
	Steps     escape.Series[int]
	Mode      escape.Mode

	Display   escape.DisplayMode
	Normalize bool
	Colormap  string
	Grayscale bool
	Seconds   float64

	LogInterval int
}

// NewEngine constructs and initializes the engine the plan describes.
func (p *Plan) NewEngine() (*escape.Engine, error) {
	eng, err := escape.New(p.Options)
	if err != nil {
		return nil, err
	}
	switch p.Kind {
	case escape.KindJulia:
		err = eng.InitJulia(p.Power, p.Param, p.Threshold)
	case escape.KindMandelbrot:
		err = eng.InitMandelbrot(p.Power, p.Threshold)
	default:
		err = fmt.Errorf("plan has no fractal kind")
	}
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// Build resolves defaults and sweeps into a Plan.
func (f *File) Build() (*Plan, error) {
	var kind escape.Kind
	switch f.RunType {
	case RunJulia, "":
		kind = escape.KindJulia
	case RunMandelbrot:
		kind = escape.KindMandelbrot
	case RunReanimate:
		return nil, fmt.Errorf("run type %s does not compute a fractal", RunReanimate)
	default:
		return nil, fmt.Errorf("run type must be either julia or mandelbrot, but was: %s", f.RunType)
	}

	if f.Frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", f.Frames)
	}
	mode, err := escape.ParseMode(f.Iteration)
	if err != nil {
		return nil, err
	}
	display, err := escape.ParseDisplayMode(cmp.Or(f.ColorBy, string(escape.ShowIterations)))
	if err != nil {
		return nil, err
	}
	curve, err := Easing(f.Ease)
	if err != nil {
		return nil, err
	}
	if mode == escape.Wrapping && f.sweepsSteps() {
		return nil, fmt.Errorf("steps_start/steps_end sweeps need bounded iteration, got %s", mode)
	}

	xpix, ypix := f.Dimensions()
	height, width := f.Extent()
	center := complex128(f.Center)
	frames := f.Frames
	sw := sweep{frames: frames, curve: curve}

	scale := escape.Scalar(1 / floatOr(f.Zoom, 1))
	var scales []float64
	if f.Zoom == nil && f.ZoomStart != nil && f.ZoomEnd != nil {
		scales = sw.linspace(1 / *f.ZoomStart, 1 / *f.ZoomEnd)
		scale = escape.PerFrame(scales...)
	} else {
		scales = constant(frames, 1/floatOr(f.Zoom, 1))
	}

	shifts := constant(frames, complexOr(f.Shift, 0))
	if f.Shift == nil && f.ShiftStart != nil && f.ShiftEnd != nil {
		shifts = sw.linspaceComplex(complex128(*f.ShiftStart), complex128(*f.ShiftEnd))
	}
	// Zooming scales about the origin; moving the plane by (1 - scale)·center
	// keeps the configured center fixed. Julia runs move the start values,
	// Mandelbrot runs move the parameter and still start at the plain shift.
	recenter := make([]complex128, frames)
	for i := range recenter {
		recenter[i] = complex(1-scales[i], 0) * center
	}
	offsets := constant(frames, complex128(0))
	if kind == escape.KindMandelbrot {
		offsets = recenter
	} else {
		for i := range shifts {
			shifts[i] += recenter[i]
		}
	}

	power := escape.Scalar(complexOr(f.Power, DefaultPower))
	if f.Power == nil && f.PowerStart != nil && f.PowerEnd != nil {
		power = escape.PerFrame(sw.linspaceComplex(complex128(*f.PowerStart), complex128(*f.PowerEnd))...)
	}

	steps := escape.Scalar(intOr(f.Steps, DefaultSteps))
	if f.sweepsSteps() {
		steps = escape.PerFrame(f.stepSchedule()...)
	}

	threshold := floatOr(f.PointValueMax, DefaultPointValueMax)
	if !(threshold > 0) {
		return nil, fmt.Errorf("point_value_max must be positive, got %v", threshold)
	}

	seconds := math.Min(1, float64(frames)/24)
	if f.Seconds != nil {
		seconds = *f.Seconds
	}

	plan := &Plan{
		Kind: kind,
		Options: escape.Options{
			Window: escape.Window{
				Width:  xpix,
				Height: ypix,
				Xmin:   -width/2 + real(center),
				Xmax:   width/2 + real(center),
				Ymin:   -height/2 + imag(center),
				Ymax:   height/2 + imag(center),
			},
			Frames: frames,
			Scale:  scale,
			Shift:  escape.PerFrame(shifts...),
			Offset: escape.PerFrame(offsets...),
		},
		Power:       power,
		Param:       f.paramSeries(sw),
		Threshold:   escape.Scalar(threshold),
		Steps:       steps,
		Mode:        mode,
		Display:     display,
		Normalize:   f.NormalizeFrameColors,
		Colormap:    f.Colormap,
		Grayscale:   f.Grayscale,
		Seconds:     seconds,
		LogInterval: f.LogInterval,
	}
	return plan, nil
}

// stepSchedule returns per-frame step budgets. A steps_start/steps_end
// sweep reaches steps_end on the last frame.
func (f *File) stepSchedule() []int {
	if !f.sweepsSteps() {
		return constant(max(f.Frames, 1), intOr(f.Steps, DefaultSteps))
	}
	start, end := *f.StepsStart, *f.StepsEnd
	out := make([]int, max(f.Frames, 1))
	for i := range out {
		out[i] = int(float64(end-start)*float64(i+1)/float64(len(out))) + start
	}
	return out
}

func (f *File) fixedParam() (complex128, bool) {
	if f.Param != nil {
		return complex128(*f.Param), true
	}
	if f.ParamRadius != nil && f.ParamDegrees != nil {
		return cmplx.Rect(*f.ParamRadius, *f.ParamDegrees*math.Pi/180), true
	}
	if _, _, ok := f.paramArc(); ok {
		return 0, false
	}
	return DefaultParam, true
}

// paramArc returns the degree range of a param sweep, given either as
// start/end or as center/range.
func (f *File) paramArc() (start, end float64, ok bool) {
	if f.ParamRadius == nil {
		return 0, 0, false
	}
	if f.ParamDegreesStart != nil && f.ParamDegreesEnd != nil {
		return *f.ParamDegreesStart, *f.ParamDegreesEnd, true
	}
	if f.ParamDegreesCenter != nil && f.ParamDegreesRange != nil {
		half := *f.ParamDegreesRange / 2
		return *f.ParamDegreesCenter - half, *f.ParamDegreesCenter + half, true
	}
	return 0, 0, false
}

// paramSeries walks the arc from start toward end, frame n at fraction
// n/frames, so a full 360° sweep loops without repeating a frame.
func (f *File) paramSeries(sw sweep) escape.Series[complex128] {
	if c, ok := f.fixedParam(); ok {
		return escape.Scalar(c)
	}
	start, end, _ := f.paramArc()
	out := make([]complex128, sw.frames)
	for n := range out {
		deg := start + (end-start)*sw.ease(float64(n)/float64(sw.frames))
		out[n] = cmplx.Rect(*f.ParamRadius, deg*math.Pi/180)
	}
	return escape.PerFrame(out...)
}

func (f *File) paramLabel() string {
	if c, ok := f.fixedParam(); ok {
		return fmt.Sprintf("%.3fr%.02fd", cmplx.Abs(c), Complex(c).Degrees())
	}
	start, end, _ := f.paramArc()
	return fmt.Sprintf("%.3fr%.02f-%.02fd", *f.ParamRadius, start, end)
}

var easings = map[string]ease.TweenFunc{
	"linear":         ease.Linear,
	"in_quad":        ease.InQuad,
	"out_quad":       ease.OutQuad,
	"in_out_quad":    ease.InOutQuad,
	"in_cubic":       ease.InCubic,
	"out_cubic":      ease.OutCubic,
	"in_out_cubic":   ease.InOutCubic,
	"in_sine":        ease.InSine,
	"out_sine":       ease.OutSine,
	"in_out_sine":    ease.InOutSine,
	"in_expo":        ease.InExpo,
	"out_expo":       ease.OutExpo,
	"in_out_expo":    ease.InOutExpo,
	"in_out_circ":    ease.InOutCirc,
	"out_bounce":     ease.OutBounce,
	"in_out_elastic": ease.InOutElastic,
}

// Easing returns the sweep curve for name; "" means linear.
func Easing(name string) (ease.TweenFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("unknown ease: %s", name)
	}
	return fn, nil
}

type sweep struct {
	frames int
	curve  ease.TweenFunc
}

func (s sweep) ease(frac float64) float64 {
	if s.curve == nil {
		return frac
	}
	return float64(s.curve(float32(frac), 0, 1, 1))
}

// fraction is the eased position of frame i on a closed [0, 1] sweep.
func (s sweep) fraction(i int) float64 {
	if s.frames == 1 || i == 0 {
		return 0
	}
	if i == s.frames-1 {
		return 1
	}
	return s.ease(float64(i) / float64(s.frames-1))
}

func (s sweep) linspace(start, end float64) []float64 {
	out := make([]float64, s.frames)
	for i := range out {
		out[i] = start + (end-start)*s.fraction(i)
	}
	return out
}

func (s sweep) linspaceComplex(start, end complex128) []complex128 {
	out := make([]complex128, s.frames)
	for i := range out {
		out[i] = start + (end-start)*complex(s.fraction(i), 0)
	}
	return out
}

func constant[T any](n int, v T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func complexOr(p *Complex, def complex128) complex128 {
	if p == nil {
		return def
	}
	return complex128(*p)
}
