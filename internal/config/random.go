package config

import (
	"math/rand"

	"github.com/san-kum/fractal/internal/escape"
)

// Random draws a single-frame run. Sizes, plane extents and the escape
// threshold are kept away from zero so every draw builds.
func Random(rng *rand.Rand, colormaps []string) *File {
	cfg := DefaultFile()
	if rng.Intn(2) == 1 {
		cfg.RunType = RunMandelbrot
	}
	cfg.XPixels = ptr(512 + rng.Intn(2048-512+1))
	cfg.YPixels = ptr(512 + rng.Intn(2048-512+1))
	cfg.Frames = 1
	if len(colormaps) > 0 {
		cfg.Colormap = colormaps[rng.Intn(len(colormaps))]
	}
	colorBy := []escape.DisplayMode{escape.ShowIterations, escape.ShowDiverged, escape.ShowUndiverged}
	cfg.ColorBy = string(colorBy[rng.Intn(len(colorBy))])

	cfg.Height = ptr(0.01 + rng.Float64()*3)
	cfg.Width = ptr(0.01 + rng.Float64()*3)
	cfg.Center = Complex(complex(rng.Float64()*3-1.5, rng.Float64()*3-1.5))
	cfg.PointValueMax = ptr(0.1 + rng.Float64()*20)
	cfg.Steps = ptr(10 + rng.Intn(191))
	cfg.Power = ptr(Complex(complex(rng.Float64()*6, 0)))
	cfg.Param = ptr(Complex(complex(rng.Float64()*3-1.5, rng.Float64()*3-1.5)))
	return cfg
}
