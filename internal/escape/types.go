package escape

import (
	"fmt"
	"math"
)

// Window is the pixel grid and the rectangle of the complex plane it covers.
// Pixel (i, j) samples x_i + i*y_j with x and y linearly spaced over the
// closed bounds.
type Window struct {
	Width  int
	Height int
	Xmin   float64
	Xmax   float64
	Ymin   float64
	Ymax   float64
}

func (w Window) validate() error {
	if w.Width <= 0 || w.Height <= 0 {
		return invalidParam("pixels", "dimensions must be positive, got %dx%d", w.Width, w.Height)
	}
	if !(w.Xmin < w.Xmax) {
		return invalidParam("bounds", "xmin %v must be below xmax %v", w.Xmin, w.Xmax)
	}
	if !(w.Ymin < w.Ymax) {
		return invalidParam("bounds", "ymin %v must be below ymax %v", w.Ymin, w.Ymax)
	}
	return nil
}

// Options configures a new Engine. Scale defaults to 1, Shift and Offset
// to 0. Offset moves the Mandelbrot parameter plane and is ignored by Julia
// runs.
type Options struct {
	Window
	Frames int
	Scale  Series[float64]
	Shift  Series[complex128]
	Offset Series[complex128]
}

type Shape struct {
	Frames int
	Width  int
	Height int
}

func (s Shape) Plane() int { return s.Width * s.Height }
func (s Shape) Len() int   { return s.Frames * s.Width * s.Height }

// Index returns the flat offset of (f, x, y).
func (s Shape) Index(f, x, y int) int {
	return (f*s.Width+x)*s.Height + y
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Frames, s.Width, s.Height)
}

// Kind records which init variant built the grids.
type Kind int

const (
	KindNone Kind = iota
	KindJulia
	KindMandelbrot
)

func (k Kind) String() string {
	switch k {
	case KindJulia:
		return "julia"
	case KindMandelbrot:
		return "mandelbrot"
	default:
		return "none"
	}
}

// Mode selects the iteration rule used by Advance.
type Mode string

const (
	// Bounded freezes a point once its magnitude reaches the threshold.
	Bounded Mode = "bounded"
	// Wrapping updates every point and resets diverged points to zero.
	Wrapping Mode = "wrapping"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Bounded, Wrapping:
		return Mode(s), nil
	case "":
		return Bounded, nil
	}
	return "", invalidParam("mode", "unknown iteration mode %q", s)
}

// DisplayMode selects how SelectDisplay derives its array.
type DisplayMode string

const (
	ShowIterations DisplayMode = "iterations"
	ShowArray      DisplayMode = "array"
	ShowUndiverged DisplayMode = "undiverged"
	ShowNested     DisplayMode = "nested"
	ShowDiverged   DisplayMode = "diverged"
	// ShowWTF zeroes counts above the step total, which should never happen.
	ShowWTF DisplayMode = "wtf"
)

func DisplayModes() []DisplayMode {
	return []DisplayMode{ShowIterations, ShowArray, ShowUndiverged, ShowNested, ShowDiverged, ShowWTF}
}

func ParseDisplayMode(s string) (DisplayMode, error) {
	for _, m := range DisplayModes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &InvalidDisplayModeError{Mode: s}
}

// Observer is notified after every completed round.
type Observer interface {
	OnRound(round, total int)
}

type ObserverFunc func(round, total int)

func (f ObserverFunc) OnRound(round, total int) { f(round, total) }

// FrameStats summarizes the counts of one frame.
type FrameStats struct {
	Frame      int
	Diverged   int
	Undiverged int
	MeanCount  float64
	MaxCount   uint32
}

func (s FrameStats) DivergedFraction() float64 {
	total := s.Diverged + s.Undiverged
	if total == 0 {
		return math.NaN()
	}
	return float64(s.Diverged) / float64(total)
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
