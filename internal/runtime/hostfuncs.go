package runtime

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/shapes/internal/geometry"
	"github.com/jward/shapes/internal/textscan"
)

// Shapes cross the script boundary as maps:
//
//	{"kind": "rectangle", "params": [2.0, 3.0]}
//
// Risor cannot construct Go structs, so constructors build the map and
// area/record_area decode it back into a geometry.Shape Go-side.

// makeShapeFn creates a shape constructor host function.
//
// circle(r) → shape, square(s) → shape, rectangle(w, h) → shape
func makeShapeFn(kind geometry.Kind) *object.Builtin {
	name := string(kind)
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		arity, _ := geometry.Arity(kind)
		if len(args) != arity {
			return object.NewArgsError(name, arity, len(args))
		}
		params := make([]float64, len(args))
		for i, arg := range args {
			f, err := toFloat(arg)
			if err != nil {
				return object.Errorf("%s: argument %d: %v", name, i+1, err)
			}
			params[i] = f
		}
		s, err := geometry.New(kind, params...)
		if err != nil {
			return object.Errorf("%s: %v", name, err)
		}
		return shapeToObject(s)
	})
}

// makeAreaFn creates the "area" host function.
//
// area(shape) → float
func makeAreaFn() *object.Builtin {
	return object.NewBuiltin("area", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("area", 1, len(args))
		}
		s, err := shapeFromObject(args[0])
		if err != nil {
			return object.Errorf("area: %v", err)
		}
		return object.NewFloat(geometry.Area(s))
	})
}

// makeFindFirstFn creates the "find_first" host function.
//
// find_first(text, ch) → int or nil
//
// ch must be a single character. Absence is Risor nil, never -1.
func makeFindFirstFn() *object.Builtin {
	return object.NewBuiltin("find_first", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("find_first", 2, len(args))
		}
		text, target, err := searchArgs(args[0], args[1])
		if err != nil {
			return object.Errorf("find_first: %v", err)
		}
		return searchResultToObject(textscan.FindFirst(text, target))
	})
}

// searchArgs validates the (text, ch) pair shared by find_first and
// record_search.
func searchArgs(textObj, chObj object.Object) (string, rune, error) {
	text, err := toString(textObj)
	if err != nil {
		return "", 0, fmt.Errorf("text: %w", err)
	}
	ch, err := toString(chObj)
	if err != nil {
		return "", 0, fmt.Errorf("ch: %w", err)
	}
	target, err := singleRune(ch)
	if err != nil {
		return "", 0, err
	}
	return text, target, nil
}

// singleRune returns the only rune of s.
func singleRune(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("expected exactly one character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func searchResultToObject(r textscan.SearchResult) object.Object {
	idx, ok := r.Index()
	if !ok {
		return object.Nil
	}
	return object.NewInt(int64(idx))
}

func shapeToObject(s geometry.Shape) object.Object {
	params := geometry.Params(s)
	items := make([]object.Object, len(params))
	for i, p := range params {
		items[i] = object.NewFloat(p)
	}
	return object.NewMap(map[string]object.Object{
		"kind":   object.NewString(string(s.Kind())),
		"params": object.NewList(items),
	})
}

func shapeFromObject(obj object.Object) (geometry.Shape, error) {
	m, err := extractMap(obj)
	if err != nil {
		return nil, err
	}
	kind, err := geometry.ParseKind(getString(m, "kind"))
	if err != nil {
		return nil, err
	}
	rawParams, ok := m["params"].(*object.List)
	if !ok {
		return nil, fmt.Errorf("shape params must be a list")
	}
	params := make([]float64, 0, len(rawParams.Value()))
	for i, item := range rawParams.Value() {
		f, err := toFloat(item)
		if err != nil {
			return nil, fmt.Errorf("shape param %d: %w", i, err)
		}
		params = append(params, f)
	}
	return geometry.New(kind, params...)
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *zap.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
