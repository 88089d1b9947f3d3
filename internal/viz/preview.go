package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fractal/internal/escape"
	"github.com/san-kum/fractal/internal/render"
)

// PreviewRows is the number of text rows Preview uses for a cols-wide
// preview of a w x h plane. Each row holds two pixel rows.
func PreviewRows(cols, w, h int) int {
	return max(1, (cols*h/w+1)/2)
}

// Preview renders frame f of d as half-block characters, cols wide. Each
// character shows two vertically stacked samples: the upper as foreground,
// the lower as background.
func Preview(d *escape.Display, f int, cmap *render.Colormap, cols int) string {
	w, h := d.Shape.Width, d.Shape.Height
	cols = max(1, min(cols, w))
	rows := PreviewRows(cols, w, h)
	scaled := render.Scale(d.Frame(f))

	sample := func(sx, sy int) lipgloss.Color {
		x := sx * w / cols
		y := h - 1 - min(h-1, sy*h/(rows*2))
		c := cmap.At(scaled[x*h+y])
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
	}

	var b strings.Builder
	for r := 0; r < rows; r++ {
		for sx := 0; sx < cols; sx++ {
			cell := lipgloss.NewStyle().
				Foreground(sample(sx, 2*r)).
				Background(sample(sx, 2*r+1))
			b.WriteString(cell.Render("▀"))
		}
		if r < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
