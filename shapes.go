package shapes

import (
	"io"

	"github.com/jward/shapes/internal/geometry"
	"github.com/jward/shapes/internal/store"
	"github.com/jward/shapes/internal/textscan"
)

// Area returns the area of s: π·r² for a Circle, s² for a Square and w·h
// for a Rectangle. Payloads are not validated. Area panics if s is nil.
func Area(s Shape) float64 {
	return geometry.Area(s)
}

// Kinds lists every shape variant.
func Kinds() []Kind {
	return geometry.Kinds()
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(name string) (Kind, error) {
	return geometry.ParseKind(name)
}

// NewShape builds the variant named by kind from its positional payload:
// one value for circle and square, width and height for rectangle.
func NewShape(kind Kind, params ...float64) (Shape, error) {
	return geometry.New(kind, params...)
}

// ShapeParams returns the positional payload of s.
func ShapeParams(s Shape) []float64 {
	return geometry.Params(s)
}

// FindFirst returns the rune index of the first target in text, or a
// not-found result.
func FindFirst(text string, target rune) SearchResult {
	return textscan.FindFirst(text, target)
}

// FindFirstReader is FindFirst over a stream.
func FindFirstReader(r io.Reader, target rune) (SearchResult, error) {
	return textscan.FindFirstReader(r, target)
}

// Found returns a search result holding index i.
func Found(i int) SearchResult {
	return textscan.Found(i)
}

// NotFound returns the empty search result.
func NotFound() SearchResult {
	return textscan.NotFound()
}

// Arity reports how many payload values kind takes.
func Arity(kind Kind) (int, error) {
	return geometry.Arity(kind)
}

// TextHash returns the hash searches are recorded under, for use in
// SearchFilter.TextHash.
func TextHash(text string) string {
	return store.TextHash(text)
}
