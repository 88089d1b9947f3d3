package escape

// Series is a parameter that is either one value shared by every frame or
// one value per frame. The zero Series holds no value at all.
type Series[T any] struct {
	values   []T
	perFrame bool
}

// Scalar returns a Series sharing v across all frames.
func Scalar[T any](v T) Series[T] {
	return Series[T]{values: []T{v}}
}

// PerFrame returns a Series with one value per frame.
func PerFrame[T any](vs ...T) Series[T] {
	c := make([]T, len(vs))
	copy(c, vs)
	return Series[T]{values: c, perFrame: true}
}

func (s Series[T]) IsZero() bool     { return len(s.values) == 0 && !s.perFrame }
func (s Series[T]) IsPerFrame() bool { return s.perFrame }
func (s Series[T]) Len() int         { return len(s.values) }

// Values returns a copy of the stored values.
func (s Series[T]) Values() []T {
	c := make([]T, len(s.values))
	copy(c, s.values)
	return c
}

// Or returns s, or Scalar(def) when s is the zero Series.
func (s Series[T]) Or(def T) Series[T] {
	if s.IsZero() {
		return Scalar(def)
	}
	return s
}

// Resolve broadcasts the series to exactly frames values.
func (s Series[T]) Resolve(field string, frames int) ([]T, error) {
	if s.IsZero() {
		return nil, invalidParam(field, "no value given")
	}
	if s.perFrame {
		if len(s.values) != frames {
			return nil, invalidParam(field, "%d per-frame values for %d frames", len(s.values), frames)
		}
		return s.Values(), nil
	}
	out := make([]T, frames)
	for i := range out {
		out[i] = s.values[0]
	}
	return out, nil
}
