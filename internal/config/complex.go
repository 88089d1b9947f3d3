package config

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Complex is a complex number in YAML. It decodes from a number, a string
// such as "-0.8+0.2i" (a trailing j and surrounding parentheses are
// accepted, so !!python/complex values load), a [re, im] pair or a
// {re, im} mapping.
type Complex complex128

func (c *Complex) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := parseComplex(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = Complex(v)
		return nil

	case yaml.SequenceNode:
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: complex pair needs 2 values, got %d", node.Line, len(pair))
		}
		*c = Complex(complex(pair[0], pair[1]))
		return nil

	case yaml.MappingNode:
		var parts struct {
			Re float64 `yaml:"re"`
			Im float64 `yaml:"im"`
		}
		if err := node.Decode(&parts); err != nil {
			return err
		}
		*c = Complex(complex(parts.Re, parts.Im))
		return nil
	}
	return fmt.Errorf("line %d: cannot decode complex number", node.Line)
}

func (c Complex) MarshalYAML() (interface{}, error) {
	return FormatComplex(complex128(c)), nil
}

func (c Complex) Abs() float64 { return cmplx.Abs(complex128(c)) }

// Degrees returns the argument of c in degrees, in (-180, 180].
func (c Complex) Degrees() float64 {
	return cmplx.Phase(complex128(c)) * 180 / math.Pi
}

func parseComplex(s string) (complex128, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	if strings.HasSuffix(s, "j") {
		s = strings.TrimSuffix(s, "j") + "i"
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return complex(f, 0), nil
	}
	v, err := strconv.ParseComplex(s, 128)
	if err != nil {
		return 0, fmt.Errorf("invalid complex number %q", s)
	}
	return v, nil
}

func FormatComplex(v complex128) string {
	return strconv.FormatComplex(v, 'g', -1, 128)
}
