package config

import (
	"sort"

	"github.com/san-kum/fractal/internal/escape"
)

// region is a rectangle of the complex plane.
type region struct {
	xmin, xmax float64
	ymin, ymax float64
}

func (r region) mandelbrot(steps int) func() *File {
	return func() *File {
		cfg := DefaultFile()
		cfg.RunType = RunMandelbrot
		cfg.Center = Complex(complex((r.xmin+r.xmax)/2, (r.ymin+r.ymax)/2))
		cfg.Height = ptr(r.ymax - r.ymin)
		cfg.Width = ptr(r.xmax - r.xmin)
		cfg.Steps = ptr(steps)
		return cfg
	}
}

func julia(param complex128, mutate func(*File)) func() *File {
	return func() *File {
		cfg := DefaultFile()
		cfg.Param = ptr(Complex(param))
		if mutate != nil {
			mutate(cfg)
		}
		return cfg
	}
}

// Presets are named starting points. Each call builds a fresh File, so
// decoding over one never touches another.
var Presets = map[string]func() *File{
	"seahorse_valley":         region{-0.8, -0.7, 0.05, 0.15}.mandelbrot(200),
	"elephant_valley":         region{-1.85, -1.75, -0.10, -0.02}.mandelbrot(200),
	"spiral_minibrot":         region{-0.7435, -0.7420, 0.1310, 0.1325}.mandelbrot(600),
	"triple_spiral":           region{-0.7480, -0.7450, 0.0950, 0.0980}.mandelbrot(500),
	"valley_of_the_dragon":    region{-0.7400, -0.7350, 0.1800, 0.1850}.mandelbrot(500),
	"minibrot_in_mini_spiral": region{-1.7390, -1.7375, -0.0235, -0.0220}.mandelbrot(600),
	"mandelbrot":              region{-2.25, 0.75, -1.5, 1.5}.mandelbrot(DefaultSteps),
	"douady_rabbit":           julia(complex(-0.123, 0.745), nil),
	"dendrite":                julia(complex(0, 1), nil),
	"siegel_disk":             julia(complex(-0.391, -0.587), nil),
	"san_marco":               julia(complex(-0.75, 0), nil),
	"julia_default":           julia(DefaultParam, nil),
	"julia_wrapping": julia(DefaultParam, func(f *File) {
		f.Iteration = string(escape.Wrapping)
		f.ColorBy = string(escape.ShowDiverged)
	}),
	"julia_orbit": julia(0, func(f *File) {
		f.Param = nil
		f.Frames = 120
		f.ParamRadius = ptr(0.7885)
		f.ParamDegreesStart = ptr(0.0)
		f.ParamDegreesEnd = ptr(360.0)
	}),
}

// GetPreset returns the named preset, or nil.
func GetPreset(name string) *File {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := build()
	cfg.Preset = name
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ptr[T any](v T) *T { return &v }
