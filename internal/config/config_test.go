package config

import (
	"math"
	"math/cmplx"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/fractal/internal/escape"
)

func approx(a, b complex128) bool { return cmplx.Abs(a-b) < 1e-9 }

func TestDefaultFile(t *testing.T) {
	cfg := DefaultFile()

	if cfg.RunType != RunJulia {
		t.Errorf("expected run type julia, got %s", cfg.RunType)
	}
	if cfg.Frames != 1 {
		t.Errorf("expected 1 frame, got %d", cfg.Frames)
	}
	x, y := cfg.Dimensions()
	if x != DefaultPixels || y != DefaultPixels {
		t.Errorf("expected %dx%d, got %dx%d", DefaultPixels, DefaultPixels, x, y)
	}
}

func TestBuildDefaults(t *testing.T) {
	plan, err := DefaultFile().Build()
	if err != nil {
		t.Fatal(err)
	}

	w := plan.Options.Window
	if w.Xmin != -1.5 || w.Xmax != 1.5 || w.Ymin != -1.5 || w.Ymax != 1.5 {
		t.Errorf("unexpected window %+v", w)
	}
	if plan.Kind != escape.KindJulia {
		t.Errorf("expected julia, got %v", plan.Kind)
	}
	if got := plan.Param.Values(); len(got) != 1 || got[0] != DefaultParam {
		t.Errorf("expected default param, got %v", got)
	}
	if got := plan.Steps.Values(); len(got) != 1 || got[0] != DefaultSteps {
		t.Errorf("expected %d steps, got %v", DefaultSteps, got)
	}
	if plan.Display != escape.ShowIterations || plan.Mode != escape.Bounded {
		t.Errorf("unexpected display %s / mode %s", plan.Display, plan.Mode)
	}
	if plan.Seconds != 1.0/24 {
		t.Errorf("expected 1/24 s, got %v", plan.Seconds)
	}
}

func TestParseComplexForms(t *testing.T) {
	tests := []struct {
		yaml string
		want complex128
	}{
		{"center: 0.5", 0.5},
		{"center: -0.8+0.2i", complex(-0.8, 0.2)},
		{"center: (-0.8+0.2j)", complex(-0.8, 0.2)},
		{"center: !!python/complex -0.8+0.2j", complex(-0.8, 0.2)},
		{"center: [1, -2]", complex(1, -2)},
		{"center: {re: 1, im: 2}", complex(1, 2)},
	}

	for _, tt := range tests {
		cfg, err := Parse([]byte(tt.yaml))
		if err != nil {
			t.Errorf("%q: %v", tt.yaml, err)
			continue
		}
		if complex128(cfg.Center) != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.yaml, tt.want, complex128(cfg.Center))
		}
	}

	if _, err := Parse([]byte("center: banana")); err == nil {
		t.Error("expected error for malformed complex")
	}
}

func TestParsePresetOverride(t *testing.T) {
	cfg, err := Parse([]byte("preset: seahorse_valley\nsteps: 42\nframes: 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RunType != RunMandelbrot {
		t.Errorf("expected mandelbrot from preset, got %s", cfg.RunType)
	}
	if *cfg.Steps != 42 || cfg.Frames != 3 {
		t.Errorf("expected overrides, got steps %d frames %d", *cfg.Steps, cfg.Frames)
	}

	if fresh := GetPreset("seahorse_valley"); *fresh.Steps != 200 {
		t.Errorf("preset was mutated: steps %d", *fresh.Steps)
	}

	if _, err := Parse([]byte("preset: nowhere\n")); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestParseWithPreset(t *testing.T) {
	cfg, err := ParseWithPreset([]byte("steps: 42\n"), "douady_rabbit")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Preset != "douady_rabbit" {
		t.Errorf("expected douady_rabbit base, got %q", cfg.Preset)
	}
	if want := GetPreset("douady_rabbit"); complex128(*cfg.Param) != complex128(*want.Param) {
		t.Errorf("expected preset param %v, got %v", *want.Param, *cfg.Param)
	}
	if *cfg.Steps != 42 {
		t.Errorf("expected file steps 42, got %d", *cfg.Steps)
	}

	if _, err := ParseWithPreset([]byte("preset: dendrite\n"), "dendrite"); err != nil {
		t.Errorf("matching preset names: %v", err)
	}
	if _, err := ParseWithPreset([]byte("preset: dendrite\n"), "san_marco"); err == nil {
		t.Error("expected error for conflicting presets")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("seahorse_valley")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if !approx(complex128(cfg.Center), complex(-0.75, 0.1)) {
		t.Errorf("expected center -0.75+0.1i, got %v", complex128(cfg.Center))
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %s > %s", names[i-1], names[i])
		}
	}
	for _, name := range names {
		if _, err := GetPreset(name).Build(); err != nil {
			t.Errorf("preset %s does not build: %v", name, err)
		}
	}
}

func TestStepSweep(t *testing.T) {
	cfg := DefaultFile()
	cfg.Frames = 4
	cfg.StepsStart = ptr(10)
	cfg.StepsEnd = ptr(50)

	plan, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	got := plan.Steps.Values()
	want := []int{20, 30, 40, 50}
	if !plan.Steps.IsPerFrame() || len(got) != len(want) {
		t.Fatalf("expected per-frame steps %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: expected %d steps, got %d", i, want[i], got[i])
		}
	}
	if cfg.maxSteps() != 50 {
		t.Errorf("expected folder steps 50, got %d", cfg.maxSteps())
	}

	cfg.Iteration = string(escape.Wrapping)
	if _, err := cfg.Build(); err == nil {
		t.Error("expected error for step sweep with wrapping iteration")
	}
}

func TestZoomKeepsCenter(t *testing.T) {
	cfg := DefaultFile()
	cfg.Frames = 2
	cfg.Center = Complex(complex(1, 1))
	cfg.ZoomStart = ptr(1.0)
	cfg.ZoomEnd = ptr(4.0)

	plan, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	scales := plan.Options.Scale.Values()
	if scales[0] != 1 || scales[1] != 0.25 {
		t.Errorf("expected scales [1 0.25], got %v", scales)
	}
	shifts := plan.Options.Shift.Values()
	if !approx(shifts[0], 0) || !approx(shifts[1], complex(0.75, 0.75)) {
		t.Errorf("unexpected shifts %v", shifts)
	}

	// The window center maps to itself on every frame.
	w := plan.Options.Window
	c := complex((w.Xmin+w.Xmax)/2, (w.Ymin+w.Ymax)/2)
	for f := range scales {
		if got := c*complex(scales[f], 0) + shifts[f]; !approx(got, complex(1, 1)) {
			t.Errorf("frame %d: center moved to %v", f, got)
		}
	}
}

func TestMandelbrotZoomStartsAtZero(t *testing.T) {
	cfg, err := Parse([]byte("run_type: mandelbrot\npixels: 8\ncenter: [-0.75, 0.1]\nzoom: 4\nheight: 0.5\n"))
	if err != nil {
		t.Fatal(err)
	}
	plan, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	eng, err := plan.NewEngine()
	if err != nil {
		t.Fatal(err)
	}

	if got := eng.Value(0, 0, 0); got != 0 {
		t.Errorf("mandelbrot start value %v, want 0", got)
	}
	if got := eng.Value(0, 7, 7); got != 0 {
		t.Errorf("mandelbrot start value %v, want 0", got)
	}

	// Pixel (0, 0) sits at the lower-left corner of the zoomed window.
	center := complex(-0.75, 0.1)
	want := center + complex(0.25, 0)*complex(-0.25, -0.25)
	if got := eng.FrameParam(0); !approx(got, want) {
		t.Errorf("corner param %v, want %v", got, want)
	}
}

func TestMandelbrotShiftIsStartValue(t *testing.T) {
	cfg := DefaultFile()
	cfg.RunType = RunMandelbrot
	cfg.Center = Complex(complex(1, 1))
	cfg.Zoom = ptr(2.0)
	cfg.Shift = ptr(Complex(0.5i))

	plan, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := plan.Options.Shift.Values(); !approx(got[0], 0.5i) {
		t.Errorf("expected shift 0.5i, got %v", got)
	}
	if got := plan.Options.Offset.Values(); !approx(got[0], complex(0.5, 0.5)) {
		t.Errorf("expected param offset 0.5+0.5i, got %v", got)
	}
}

func TestParamArc(t *testing.T) {
	cfg := DefaultFile()
	cfg.Frames = 4
	cfg.ParamRadius = ptr(1.0)
	cfg.ParamDegreesStart = ptr(0.0)
	cfg.ParamDegreesEnd = ptr(360.0)

	plan, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	want := []complex128{1, 1i, -1, -1i}
	got := plan.Param.Values()
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("frame %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if label := cfg.paramLabel(); label != "1.000r0.00-360.00d" {
		t.Errorf("unexpected label %q", label)
	}

	cfg.ParamDegreesStart, cfg.ParamDegreesEnd = nil, nil
	cfg.ParamDegreesCenter = ptr(90.0)
	cfg.ParamDegreesRange = ptr(180.0)
	start, end, ok := cfg.paramArc()
	if !ok || start != 0 || end != 180 {
		t.Errorf("expected arc 0..180, got %v..%v (%v)", start, end, ok)
	}
}

func TestFixedParamPolar(t *testing.T) {
	cfg := DefaultFile()
	cfg.ParamRadius = ptr(2.0)
	cfg.ParamDegrees = ptr(90.0)

	c, ok := cfg.fixedParam()
	if !ok || !approx(c, 2i) {
		t.Errorf("expected 2i, got %v", c)
	}
	if label := cfg.paramLabel(); label != "2.000r90.00d" {
		t.Errorf("unexpected label %q", label)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*File)
	}{
		{"run type", func(f *File) { f.RunType = "newton" }},
		{"reanimate", func(f *File) { f.RunType = RunReanimate }},
		{"frames", func(f *File) { f.Frames = 0 }},
		{"iteration", func(f *File) { f.Iteration = "sideways" }},
		{"color by", func(f *File) { f.ColorBy = "rainbow" }},
		{"ease", func(f *File) { f.Ease = "wobble" }},
		{"threshold", func(f *File) { f.PointValueMax = ptr(0.0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFile()
			tt.mutate(cfg)
			if _, err := cfg.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEasing(t *testing.T) {
	for name := range easings {
		fn, err := Easing(name)
		if err != nil {
			t.Fatal(err)
		}
		s := sweep{frames: 5, curve: fn}
		if s.fraction(0) != 0 || s.fraction(4) != 1 {
			t.Errorf("%s: sweep does not span [0, 1]", name)
		}
	}

	s := sweep{frames: 3, curve: easing(t, "in_quad")}
	if got := s.fraction(1); math.Abs(got-0.25) > 1e-6 {
		t.Errorf("in_quad midpoint: expected 0.25, got %v", got)
	}
}

func easing(t *testing.T, name string) func(t, b, c, d float32) float32 {
	t.Helper()
	fn, err := Easing(name)
	if err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestRunName(t *testing.T) {
	cfg := DefaultFile()
	cfg.Pixels = ptr(16)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	name := cfg.RunName(at)
	if !strings.HasPrefix(name, "20240102030405 16x16px 3.00x3.00w 1f 50s ") {
		t.Errorf("unexpected run name %q", name)
	}
	if !strings.HasSuffix(name, "dp") {
		t.Errorf("expected param label suffix, got %q", name)
	}

	if got := cfg.OutputFolder("out", at); got != filepath.Join("out", name) {
		t.Errorf("unexpected folder %q", got)
	}
	cfg.Folder = "fixed"
	if got := cfg.OutputFolder("out", at); got != filepath.Join("out", "fixed") {
		t.Errorf("expected configured folder under base, got %q", got)
	}
	cfg.Folder = filepath.Join(t.TempDir(), "abs")
	if got := cfg.OutputFolder("out", at); got != cfg.Folder {
		t.Errorf("expected absolute folder as is, got %q", got)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("julia_orbit")
	cfg.Center = Complex(complex(0.25, -0.5))

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if complex128(loaded.Center) != complex(0.25, -0.5) {
		t.Errorf("center: expected 0.25-0.5i, got %v", complex128(loaded.Center))
	}
	if loaded.Frames != 120 || *loaded.ParamRadius != 0.7885 {
		t.Errorf("sweep keys lost: %+v", loaded)
	}
}

func TestRandomBuilds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		cfg := Random(rng, []string{"viridis", "gray"})
		plan, err := cfg.Build()
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if plan.Options.Frames != 1 {
			t.Errorf("draw %d: expected 1 frame", i)
		}
	}
}

func TestPlanNewEngine(t *testing.T) {
	cfg := DefaultFile()
	cfg.Pixels = ptr(8)
	cfg.RunType = RunMandelbrot
	plan, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	eng, err := plan.NewEngine()
	if err != nil {
		t.Fatal(err)
	}
	if eng.Kind() != escape.KindMandelbrot {
		t.Errorf("expected mandelbrot engine, got %v", eng.Kind())
	}
	if err := eng.Advance(plan.Steps, plan.Mode); err != nil {
		t.Fatal(err)
	}
	if eng.TotalSteps() != DefaultSteps {
		t.Errorf("expected %d steps, got %d", DefaultSteps, eng.TotalSteps())
	}
}
