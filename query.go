package shapes

import (
	"fmt"

	"github.com/jward/shapes/internal/store"
)

// QueryBuilder reads the recorded history.
type QueryBuilder struct {
	store *store.Store
}

// Summary aggregates the whole history.
type Summary struct {
	Kinds  []KindStats
	Hits   int
	Misses int
	Runs   int
}

// TotalEvaluations sums the per-kind counts.
func (s Summary) TotalEvaluations() int {
	n := 0
	for _, k := range s.Kinds {
		n += k.Count
	}
	return n
}

// Evaluations returns recorded evaluations matching f, newest first.
func (q *QueryBuilder) Evaluations(f EvaluationFilter) ([]Evaluation, error) {
	if f.Kind != "" {
		k, err := ParseKind(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("evaluations: %w", err)
		}
		f.Kind = string(k)
	}
	evals, err := q.store.Evaluations(f)
	if err != nil {
		return nil, err
	}
	out := make([]Evaluation, len(evals))
	for i, ev := range evals {
		out[i] = *ev
	}
	return out, nil
}

// Searches returns recorded searches matching f, newest first.
func (q *QueryBuilder) Searches(f SearchFilter) ([]Search, error) {
	searches, err := q.store.Searches(f)
	if err != nil {
		return nil, err
	}
	out := make([]Search, len(searches))
	for i, sr := range searches {
		out[i] = *sr
	}
	return out, nil
}

// Shape rebuilds the shape an evaluation was computed from.
func (q *QueryBuilder) Shape(ev Evaluation) (Shape, error) {
	k, err := ParseKind(ev.Kind)
	if err != nil {
		return nil, err
	}
	return NewShape(k, ev.Params...)
}

// Summary returns per-kind evaluation stats, search hit and miss counts, and
// the number of runs.
func (q *QueryBuilder) Summary() (Summary, error) {
	var sum Summary
	kinds, err := q.store.KindStats()
	if err != nil {
		return sum, fmt.Errorf("summary: %w", err)
	}
	sum.Kinds = kinds

	st, err := q.store.SearchStats()
	if err != nil {
		return sum, fmt.Errorf("summary: %w", err)
	}
	sum.Hits, sum.Misses = st.Hits, st.Misses

	runs, err := q.store.Runs()
	if err != nil {
		return sum, fmt.Errorf("summary: %w", err)
	}
	sum.Runs = len(runs)
	return sum, nil
}
