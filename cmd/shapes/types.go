package main

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/jward/shapes"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// Float encodes non-finite values as strings, which encoding/json rejects
// as numbers.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f Float) String() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

func floats(vs []float64) []Float {
	out := make([]Float, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}

// CLIEvaluation is a JSON-friendly evaluation.
type CLIEvaluation struct {
	ID        int64     `json:"id,omitempty"`
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Params    []Float   `json:"params"`
	Area      Float     `json:"area"`
	CreatedAt time.Time `json:"created_at"`
}

func toCLIEvaluation(ev shapes.Evaluation) CLIEvaluation {
	return CLIEvaluation{
		ID:        ev.ID,
		RunID:     ev.RunID,
		Kind:      ev.Kind,
		Params:    floats(ev.Params),
		Area:      Float(ev.Area),
		CreatedAt: ev.CreatedAt,
	}
}

func toCLIEvaluations(evs []shapes.Evaluation) []CLIEvaluation {
	out := make([]CLIEvaluation, len(evs))
	for i, ev := range evs {
		out[i] = toCLIEvaluation(ev)
	}
	return out
}

// CLIFindResult is the outcome of a find command. Index is null when the
// target does not occur.
type CLIFindResult struct {
	Source string              `json:"source"`
	Target string              `json:"target"`
	Index  shapes.SearchResult `json:"index"`
}

// CLISearch is a JSON-friendly recorded search.
type CLISearch struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Target    string    `json:"target"`
	Position  *int      `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func toCLISearches(searches []shapes.Search) []CLISearch {
	out := make([]CLISearch, len(searches))
	for i, sr := range searches {
		out[i] = CLISearch{
			ID:        sr.ID,
			RunID:     sr.RunID,
			Source:    sr.Source,
			Text:      sr.Text,
			Target:    sr.Target,
			Position:  sr.Position,
			CreatedAt: sr.CreatedAt,
		}
	}
	return out
}

// CLIKindStats is a JSON-friendly per-kind aggregate.
type CLIKindStats struct {
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
	TotalArea Float  `json:"total_area"`
	MaxArea   Float  `json:"max_area"`
}

// CLISummary is a JSON-friendly history summary.
type CLISummary struct {
	Kinds       []CLIKindStats `json:"kinds"`
	Evaluations int            `json:"evaluations"`
	Hits        int            `json:"hits"`
	Misses      int            `json:"misses"`
	Runs        int            `json:"runs"`
}

func toCLISummary(sum shapes.Summary) CLISummary {
	out := CLISummary{
		Kinds:       make([]CLIKindStats, len(sum.Kinds)),
		Evaluations: sum.TotalEvaluations(),
		Hits:        sum.Hits,
		Misses:      sum.Misses,
		Runs:        sum.Runs,
	}
	for i, k := range sum.Kinds {
		out.Kinds[i] = CLIKindStats{
			Kind:      k.Kind,
			Count:     k.Count,
			TotalArea: Float(k.TotalArea),
			MaxArea:   Float(k.MaxArea),
		}
	}
	return out
}

// jsonSafe copies a script value, wrapping every float64 in Float so
// non-finite numbers survive JSON encoding.
func jsonSafe(v any) any {
	switch v := v.(type) {
	case float64:
		return Float(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = jsonSafe(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = jsonSafe(e)
		}
		return out
	default:
		return v
	}
}

// CLIScriptResult wraps the final value of a script.
type CLIScriptResult struct {
	Script string `json:"script"`
	RunID  string `json:"run_id"`
	Value  any    `json:"value"`
}

// CLIDeleted reports a deleted run.
type CLIDeleted struct {
	RunID string `json:"run_id"`
}
