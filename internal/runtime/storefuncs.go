package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/shapes/internal/geometry"
	"github.com/jward/shapes/internal/store"
	"github.com/jward/shapes/internal/textscan"
)

// makeRecordAreaFn creates "record_area": computes the area like "area" and
// persists the evaluation under the runtime's run.
//
// record_area(shape) → float
func makeRecordAreaFn(rec store.Recorder, runID string) *object.Builtin {
	return object.NewBuiltin("record_area", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("record_area", 1, len(args))
		}
		s, err := shapeFromObject(args[0])
		if err != nil {
			return object.Errorf("record_area: %v", err)
		}

		area := geometry.Area(s)
		ev := &store.Evaluation{
			RunID:  runID,
			Kind:   string(s.Kind()),
			Params: geometry.Params(s),
			Area:   area,
		}
		if _, err := rec.InsertEvaluation(ev); err != nil {
			return object.Errorf("record_area: %v", err)
		}
		return object.NewFloat(area)
	})
}

// makeRecordSearchFn creates "record_search": runs find_first and persists
// the outcome.
//
// record_search(text, ch) → int or nil
func makeRecordSearchFn(rec store.Recorder, runID string) *object.Builtin {
	return object.NewBuiltin("record_search", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("record_search", 2, len(args))
		}
		text, target, err := searchArgs(args[0], args[1])
		if err != nil {
			return object.Errorf("record_search: %v", err)
		}

		result := textscan.FindFirst(text, target)
		sr := &store.Search{
			RunID:  runID,
			Source: "script",
			Text:   text,
			Target: string(target),
		}
		if idx, ok := result.Index(); ok {
			sr.Position = &idx
		}
		if _, err := rec.InsertSearch(sr); err != nil {
			return object.Errorf("record_search: %v", err)
		}
		return searchResultToObject(result)
	})
}

// makeEvaluationsByKindFn creates "evaluations_by_kind".
//
// evaluations_by_kind(kind) → [{id, run_id, kind, params, area}, ...]
func makeEvaluationsByKindFn(rec store.Recorder) *object.Builtin {
	return object.NewBuiltin("evaluations_by_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("evaluations_by_kind", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("evaluations_by_kind: %v", err)
		}
		kind, err := geometry.ParseKind(name)
		if err != nil {
			return object.Errorf("evaluations_by_kind: %v", err)
		}
		evals, err := rec.EvaluationsByKind(string(kind))
		if err != nil {
			return object.Errorf("evaluations_by_kind: %v", err)
		}
		return evaluationsToList(evals)
	})
}

func evaluationsToList(evals []*store.Evaluation) object.Object {
	items := make([]object.Object, 0, len(evals))
	for _, ev := range evals {
		params := make([]object.Object, len(ev.Params))
		for i, p := range ev.Params {
			params[i] = object.NewFloat(p)
		}
		items = append(items, object.NewMap(map[string]object.Object{
			"id":     object.NewInt(ev.ID),
			"run_id": object.NewString(ev.RunID),
			"kind":   object.NewString(ev.Kind),
			"params": object.NewList(params),
			"area":   object.NewFloat(ev.Area),
		}))
	}
	return object.NewList(items)
}

// --- Conversion helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func toFloat(obj object.Object) (float64, error) {
	if f, ok := obj.(*object.Float); ok {
		return f.Value(), nil
	}
	if i, ok := obj.(*object.Int); ok {
		return float64(i.Value()), nil
	}
	return 0, fmt.Errorf("expected number, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
