package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/cmplx"
	"strings"

	"github.com/san-kum/fractal/internal/escape"
)

// Scale maps a frame of display values to [0, 1] by dividing magnitudes by
// the frame's largest finite magnitude. NaN becomes 0 and infinities 1.
func Scale(frame []float64) []float64 {
	top := 0.0
	for _, v := range frame {
		if a := math.Abs(v); !math.IsInf(a, 0) && a > top {
			top = a
		}
	}

	out := make([]float64, len(frame))
	for i, v := range frame {
		a := math.Abs(v)
		switch {
		case math.IsNaN(a):
		case math.IsInf(a, 0):
			out[i] = 1
		case top > 0:
			out[i] = a / top
		}
	}
	return out
}

// Frame renders frame f of d as a paletted image. Image column x is the
// real axis and rows run from the top of the plane downward.
func Frame(d *escape.Display, f int, cmap *Colormap, grayscale bool) *image.Paletted {
	w, h := d.Shape.Width, d.Shape.Height
	var pal color.Palette
	if grayscale || cmap == nil {
		pal = grayPalette()
	} else {
		pal = cmap.Palette()
	}

	img := image.NewPaletted(image.Rect(0, 0, w, h), pal)
	scaled := Scale(d.Frame(f))
	escape.ParallelFor(w, 64, 0, func(start, end int) {
		for x := start; x < end; x++ {
			col := scaled[x*h : (x+1)*h]
			for y, v := range col {
				img.Pix[(h-1-y)*img.Stride+x] = level(v)
			}
		}
	})
	return img
}

// FrameName is the PNG file name for frame f with additive parameter param:
// the frame number and the parameter's angle in degrees.
func FrameName(f int, param complex128) string {
	deg := math.Mod(cmplx.Phase(param)*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	angle := strings.ReplaceAll(fmt.Sprintf("%.02f", deg), ".", "_")
	return fmt.Sprintf("fractal%04d_%s.png", f, angle)
}
