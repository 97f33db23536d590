// Package geometry defines the closed set of shape variants and the area
// function that dispatches over them.
//
// Shape is sealed: the marker method is unexported, so no type outside this
// package can satisfy it. Area switches over every variant explicitly and
// treats anything else as unreachable.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind names a shape variant.
type Kind string

const (
	KindCircle    Kind = "circle"
	KindSquare    Kind = "square"
	KindRectangle Kind = "rectangle"
)

// Kinds returns every shape variant in declaration order.
func Kinds() []Kind {
	return []Kind{KindCircle, KindSquare, KindRectangle}
}

var (
	// ErrUnknownKind is returned when a kind name matches no variant.
	ErrUnknownKind = errors.New("unknown shape kind")
	// ErrParamCount is returned when a payload has the wrong arity for its kind.
	ErrParamCount = errors.New("wrong number of shape parameters")
)

// Shape is one of Circle, Square or Rectangle.
type Shape interface {
	Kind() Kind
	isShape()
}

// Circle is a circle with the given radius.
type Circle struct {
	Radius float64
}

// Square is a square with the given side length.
type Square struct {
	Side float64
}

// Rectangle is an axis-aligned rectangle.
type Rectangle struct {
	Width  float64
	Height float64
}

func (Circle) Kind() Kind    { return KindCircle }
func (Square) Kind() Kind    { return KindSquare }
func (Rectangle) Kind() Kind { return KindRectangle }

func (Circle) isShape()    {}
func (Square) isShape()    {}
func (Rectangle) isShape() {}

// Area returns the area of s. Payloads are not validated: a negative side or
// width yields whatever the formula yields.
//
// Area panics if s is nil.
func Area(s Shape) float64 {
	switch v := s.(type) {
	case Circle:
		return math.Pi * v.Radius * v.Radius
	case Square:
		return v.Side * v.Side
	case Rectangle:
		return v.Width * v.Height
	default:
		panic(fmt.Sprintf("geometry: unreachable shape variant %T", s))
	}
}

// ParseKind resolves a kind name, ignoring case and surrounding space.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Arity returns the number of payload values a kind carries.
func Arity(k Kind) (int, error) {
	switch k {
	case KindCircle, KindSquare:
		return 1, nil
	case KindRectangle:
		return 2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

// New builds the variant named by kind from its positional payload.
func New(kind Kind, params ...float64) (Shape, error) {
	n, err := Arity(kind)
	if err != nil {
		return nil, err
	}
	if len(params) != n {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrParamCount, kind, n, len(params))
	}

	switch kind {
	case KindCircle:
		return Circle{Radius: params[0]}, nil
	case KindSquare:
		return Square{Side: params[0]}, nil
	default:
		return Rectangle{Width: params[0], Height: params[1]}, nil
	}
}

// Params returns the positional payload of s, the inverse of New.
func Params(s Shape) []float64 {
	switch v := s.(type) {
	case Circle:
		return []float64{v.Radius}
	case Square:
		return []float64{v.Side}
	case Rectangle:
		return []float64{v.Width, v.Height}
	default:
		panic(fmt.Sprintf("geometry: unreachable shape variant %T", s))
	}
}

// String renders s as "kind(p1, p2)".
func String(s Shape) string {
	params := Params(s)
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%g", p)
	}
	return fmt.Sprintf("%s(%s)", s.Kind(), strings.Join(parts, ", "))
}
