package shapes

import (
	"github.com/jward/shapes/internal/geometry"
	"github.com/jward/shapes/internal/store"
	"github.com/jward/shapes/internal/textscan"
)

// Public type aliases for internal types used in the API. These are Go type
// aliases (=), identical to the internal types at compile time.

type Shape = geometry.Shape
type Circle = geometry.Circle
type Square = geometry.Square
type Rectangle = geometry.Rectangle
type Kind = geometry.Kind

type SearchResult = textscan.SearchResult

type Run = store.Run
type Evaluation = store.Evaluation
type Search = store.Search
type EvaluationFilter = store.EvaluationFilter
type SearchFilter = store.SearchFilter
type KindStats = store.KindStats

const (
	KindCircle    = geometry.KindCircle
	KindSquare    = geometry.KindSquare
	KindRectangle = geometry.KindRectangle
)

var (
	ErrUnknownKind = geometry.ErrUnknownKind
	ErrParamCount  = geometry.ErrParamCount
)

type Store = store.Store
