package escape

import (
	"errors"
	"testing"
)

func TestSeriesResolve(t *testing.T) {
	got, err := Scalar(2.5).Resolve("scale", 3)
	if err != nil {
		t.Fatalf("resolve scalar: %v", err)
	}
	if len(got) != 3 || got[0] != 2.5 || got[2] != 2.5 {
		t.Errorf("expected [2.5 2.5 2.5], got %v", got)
	}

	got, err = PerFrame(1.0, 2.0).Resolve("scale", 2)
	if err != nil {
		t.Fatalf("resolve per-frame: %v", err)
	}
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestSeriesResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		series Series[float64]
	}{
		{"zero series", Series[float64]{}},
		{"too short", PerFrame(1.0)},
		{"too long", PerFrame(1.0, 2.0, 3.0)},
		{"empty per-frame", PerFrame[float64]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.series.Resolve("power", 2)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
			var pe *InvalidParameterError
			if !errors.As(err, &pe) || pe.Field != "power" {
				t.Errorf("expected InvalidParameterError for power, got %v", err)
			}
		})
	}
}

func TestSeriesPerFrameCopies(t *testing.T) {
	vs := []int{1, 2}
	s := PerFrame(vs...)
	vs[0] = 99
	if s.Values()[0] != 1 {
		t.Error("PerFrame kept a reference to the caller's slice")
	}
	if !s.IsPerFrame() || s.Len() != 2 {
		t.Errorf("unexpected series %+v", s)
	}
}

func TestSeriesOr(t *testing.T) {
	var s Series[complex128]
	if v := s.Or(3i).Values(); len(v) != 1 || v[0] != 3i {
		t.Errorf("Or on zero series = %v", v)
	}
	if v := Scalar[complex128](1).Or(3i).Values(); v[0] != 1 {
		t.Errorf("Or replaced a set series: %v", v)
	}
}
