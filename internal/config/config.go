package config

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/fractal/internal/escape"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPixels        = 1024
	DefaultHeight        = 3.0
	DefaultSteps         = 50
	DefaultPower         = 2.0
	DefaultPointValueMax = 2.0
	DefaultColormap      = "inferno"
	DefaultOutputDir     = "output"
)

// DefaultParam is the Julia parameter used when none is configured.
const DefaultParam = complex(-0.982, 0.232)

const (
	RunJulia      = "julia"
	RunMandelbrot = "mandelbrot"
	RunReanimate  = "reanimate"
)

// File is the YAML run description. Optional keys are pointers so a
// missing key can be told apart from a zero value; sweeps are given as
// *_start/*_end pairs.
type File struct {
	RunType string `yaml:"run_type"`
	Preset  string `yaml:"preset,omitempty"`
	Folder  string `yaml:"folder,omitempty"`

	Pixels  *int `yaml:"pixels,omitempty"`
	XPixels *int `yaml:"xpixels,omitempty"`
	YPixels *int `yaml:"ypixels,omitempty"`
	Frames  int  `yaml:"frames"`

	Seconds              *float64 `yaml:"seconds,omitempty"`
	Colormap             string   `yaml:"colormap"`
	Grayscale            bool     `yaml:"grayscale,omitempty"`
	ColorBy              string   `yaml:"color_by"`
	NormalizeFrameColors bool     `yaml:"normalize_frame_colors,omitempty"`
	LogInterval          int      `yaml:"log_interval,omitempty"`

	Height        *float64 `yaml:"height,omitempty"`
	Width         *float64 `yaml:"width,omitempty"`
	Center        Complex  `yaml:"center"`
	PointValueMax *float64 `yaml:"point_value_max,omitempty"`
	Iteration     string   `yaml:"iteration"`
	Ease          string   `yaml:"ease,omitempty"`

	Steps      *int `yaml:"steps,omitempty"`
	StepsStart *int `yaml:"steps_start,omitempty"`
	StepsEnd   *int `yaml:"steps_end,omitempty"`

	Zoom      *float64 `yaml:"zoom,omitempty"`
	ZoomStart *float64 `yaml:"zoom_start,omitempty"`
	ZoomEnd   *float64 `yaml:"zoom_end,omitempty"`

	Shift      *Complex `yaml:"shift,omitempty"`
	ShiftStart *Complex `yaml:"shift_start,omitempty"`
	ShiftEnd   *Complex `yaml:"shift_end,omitempty"`

	Power      *Complex `yaml:"power,omitempty"`
	PowerStart *Complex `yaml:"power_start,omitempty"`
	PowerEnd   *Complex `yaml:"power_end,omitempty"`

	Param              *Complex `yaml:"param,omitempty"`
	ParamRadius        *float64 `yaml:"param_radius,omitempty"`
	ParamDegrees       *float64 `yaml:"param_degrees,omitempty"`
	ParamDegreesStart  *float64 `yaml:"param_degrees_start,omitempty"`
	ParamDegreesEnd    *float64 `yaml:"param_degrees_end,omitempty"`
	ParamDegreesCenter *float64 `yaml:"param_degrees_center,omitempty"`
	ParamDegreesRange  *float64 `yaml:"param_degrees_range,omitempty"`
}

func DefaultFile() *File {
	return &File{
		RunType:   RunJulia,
		Frames:    1,
		Colormap:  DefaultColormap,
		ColorBy:   string(escape.ShowIterations),
		Iteration: string(escape.Bounded),
	}
}

// Load reads a YAML file. When it names a preset, the preset is the base
// the file's own keys are applied over.
func Load(path string) (*File, error) {
	return LoadWithPreset(path, "")
}

// LoadWithPreset is Load with preset as the base when the file names none.
func LoadWithPreset(path, preset string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWithPreset(data, preset)
}

func Parse(data []byte) (*File, error) {
	return ParseWithPreset(data, "")
}

// ParseWithPreset decodes data over a preset base. A file naming a
// different preset than the requested one is rejected.
func ParseWithPreset(data []byte, preset string) (*File, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	if head.Preset != "" && preset != "" && head.Preset != preset {
		return nil, fmt.Errorf("config names preset %s but %s was requested", head.Preset, preset)
	}

	cfg := DefaultFile()
	if name := cmp.Or(head.Preset, preset); name != "" {
		cfg = GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, ListPresets())
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *File) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Dimensions returns the pixel size after the pixels/xpixels/ypixels defaults.
func (f *File) Dimensions() (x, y int) {
	pixels := intOr(f.Pixels, DefaultPixels)
	return intOr(f.XPixels, pixels), intOr(f.YPixels, pixels)
}

// Extent returns the plane height and width; width defaults to the height
// stretched by the pixel aspect ratio.
func (f *File) Extent() (height, width float64) {
	x, y := f.Dimensions()
	height = floatOr(f.Height, DefaultHeight)
	width = height * float64(x) / float64(y)
	if f.Width != nil {
		width = *f.Width
	}
	return height, width
}

// RunName is the default output folder name for a run started at t.
func (f *File) RunName(t time.Time) string {
	x, y := f.Dimensions()
	h, w := f.Extent()
	return fmt.Sprintf("%s %dx%dpx %.02fx%.02fw %df %ds %sp",
		t.Format("20060102150405"), x, y, h, w, f.Frames, f.maxSteps(), f.paramLabel())
}

// OutputFolder is the configured folder, or RunName(t), under base. An
// absolute folder is used as is.
func (f *File) OutputFolder(base string, t time.Time) string {
	if filepath.IsAbs(f.Folder) {
		return f.Folder
	}
	if f.Folder != "" {
		return filepath.Join(base, f.Folder)
	}
	return filepath.Join(base, f.RunName(t))
}

func (f *File) maxSteps() int {
	top := 0
	for _, n := range f.stepSchedule() {
		top = max(top, n)
	}
	return top
}

func (f *File) sweepsSteps() bool { return f.Steps == nil && f.StepsStart != nil && f.StepsEnd != nil }

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
