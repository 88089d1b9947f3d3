package viz

import (
	"strings"

	"github.com/san-kum/fractal/internal/escape"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a dot at (x, y) in sub-pixel coordinates. The canvas size in
// sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Mask draws frame f of d onto a cols x rows canvas, one dot per sampled
// point for which keep returns true. The top dot row is the top of the
// plane.
func Mask(d *escape.Display, f, cols, rows int, keep func(v float64) bool) *Canvas {
	c := NewCanvas(cols, rows)
	w, h := d.Shape.Width, d.Shape.Height
	dotsX, dotsY := cols*2, rows*4
	frame := d.Frame(f)
	for sy := 0; sy < dotsY; sy++ {
		y := h - 1 - sy*h/dotsY
		for sx := 0; sx < dotsX; sx++ {
			x := sx * w / dotsX
			if keep(frame[x*h+y]) {
				c.Set(sx, sy)
			}
		}
	}
	return c
}
