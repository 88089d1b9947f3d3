package render

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// lutSize matches the 256 entries a GIF palette can hold.
const lutSize = 256

// Colormap maps [0, 1] to colors through a 256-entry lookup table.
type Colormap struct {
	Name string
	lut  [lutSize]color.RGBA
}

// anchors are evenly spaced samples of each map; entries between anchors
// are blended in Lab space.
var anchors = map[string][]string{
	"viridis":  {"#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"},
	"inferno":  {"#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60", "#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4"},
	"magma":    {"#000004", "#180f3d", "#440f76", "#721f81", "#9e2f7f", "#cd4071", "#f1605d", "#fd9668", "#feca8d", "#fcfdbf"},
	"plasma":   {"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786", "#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"},
	"twilight": {"#e2d9e2", "#a6c0cd", "#6f8fc1", "#5e5fb5", "#5a3393", "#2f1436", "#6b1f4d", "#a3404f", "#c97b68", "#dcb6a8", "#e2d9e2"},
	"gray":     {"#000000", "#ffffff"},
}

// Names lists the built-in colormaps. Every name also has a reversed
// variant with an "_r" suffix.
func Names() []string {
	names := make([]string, 0, len(anchors))
	for name := range anchors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the named colormap.
func Lookup(name string) (*Colormap, error) {
	base, reversed := strings.CutSuffix(name, "_r")
	hexes, ok := anchors[base]
	if !ok {
		return nil, fmt.Errorf("unknown colormap: %s (available: %v)", name, Names())
	}

	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("colormap %s: %w", base, err)
		}
		stops[i] = c
	}
	if reversed {
		for i, j := 0, len(stops)-1; i < j; i, j = i+1, j-1 {
			stops[i], stops[j] = stops[j], stops[i]
		}
	}

	cm := &Colormap{Name: name}
	segments := float64(len(stops) - 1)
	for i := range cm.lut {
		pos := float64(i) / (lutSize - 1) * segments
		k := min(int(pos), len(stops)-2)
		r, g, b := stops[k].BlendLab(stops[k+1], pos-float64(k)).Clamped().RGB255()
		cm.lut[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return cm, nil
}

// level returns the table entry for v, clamped to [0, 1]. NaN maps to 0.
func level(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return lutSize - 1
	}
	return uint8(v*(lutSize-1) + 0.5)
}

func (c *Colormap) At(v float64) color.RGBA { return c.lut[level(v)] }

// Palette returns the lookup table as an image palette.
func (c *Colormap) Palette() color.Palette {
	p := make(color.Palette, lutSize)
	for i, col := range c.lut {
		p[i] = col
	}
	return p
}

func grayPalette() color.Palette {
	p := make(color.Palette, lutSize)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}
