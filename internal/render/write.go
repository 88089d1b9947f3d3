package render

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/san-kum/fractal/internal/escape"
)

// AnimationName is the GIF written next to the frames of a multi-frame run.
const AnimationName = "fractal_animated.gif"

// defaultDelay is the per-frame GIF delay, in 1/100 s, when no duration is
// given.
const defaultDelay = 5

type Options struct {
	Colormap  *Colormap
	Grayscale bool
	// Seconds is the total animation length; 0 uses defaultDelay per frame.
	Seconds float64
	// Animate forces a GIF even for a single frame.
	Animate bool
}

// WriteFrames writes one PNG per frame of d into dir, and an animated GIF
// when there is more than one frame. It returns the written paths.
func WriteFrames(dir string, d *escape.Display, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	frames := make([]*image.Paletted, d.Shape.Frames)
	paths := make([]string, 0, len(frames)+1)
	for f := range frames {
		frames[f] = Frame(d, f, opts.Colormap, opts.Grayscale)

		var param complex128
		if f < len(d.Params) {
			param = d.Params[f]
		}
		path := filepath.Join(dir, FrameName(f, param))
		if err := writePNG(path, frames[f]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	if len(frames) > 1 || opts.Animate {
		path := filepath.Join(dir, AnimationName)
		if err := writeGIF(path, frames, opts.Seconds); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Reanimate rebuilds the GIF of a run folder from its PNG frames in name
// order and returns the GIF path.
func Reanimate(dir string, seconds float64) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no png frames in %s", dir)
	}
	sort.Strings(names)

	frames := make([]*image.Paletted, 0, len(names))
	for _, name := range names {
		img, err := readPNG(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		frames = append(frames, toPaletted(img))
	}

	path := filepath.Join(dir, AnimationName)
	if err := writeGIF(path, frames, seconds); err != nil {
		return "", err
	}
	return path, nil
}

// Delay returns the per-frame GIF delay in 1/100 s for an animation of
// the given length.
func Delay(seconds float64, frames int) int {
	if seconds <= 0 || frames <= 0 {
		return defaultDelay
	}
	return max(1, int(math.Round(seconds*100/float64(frames))))
}

func writeGIF(path string, frames []*image.Paletted, seconds float64) error {
	anim := &gif.GIF{
		Image:     frames,
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: 0,
	}
	delay := Delay(seconds, len(frames))
	for i := range frames {
		anim.Delay[i] = delay
		anim.Disposal[i] = gif.DisposalBackground
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(file, anim); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func readPNG(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return png.Decode(file)
}

// toPaletted keeps an image's exact colors when it has at most 256 of
// them and otherwise dithers it onto the Plan 9 palette.
func toPaletted(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}

	b := img.Bounds()
	seen := make(map[color.RGBA]uint8)
	var pal color.Palette
	exact := true
	for y := b.Min.Y; y < b.Max.Y && exact; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(pal) == 256 {
				exact = false
				break
			}
			seen[c] = uint8(len(pal))
			pal = append(pal, c)
		}
	}

	if !exact {
		out := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(out, b, img, b.Min)
		return out
	}
	out := image.NewPaletted(b, pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out.SetColorIndex(x, y, seen[c])
		}
	}
	return out
}
