package store

import "time"

// Run groups everything recorded by one Engine.
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
}

// Evaluation is one recorded area computation.
type Evaluation struct {
	ID        int64
	RunID     string
	Kind      string
	Params    []float64
	Area      float64 // NaN is stored as NULL and read back as NaN
	CreatedAt time.Time
}

// Search is one recorded first-character search. Position is nil when the
// target was not found.
type Search struct {
	ID        int64
	RunID     string
	Source    string
	Text      string
	TextHash  string
	Target    string
	Position  *int
	CreatedAt time.Time
}

// EvaluationFilter narrows Evaluations. Zero fields match everything;
// Limit 0 means no limit.
type EvaluationFilter struct {
	Kind   string
	RunID  string
	Limit  int
	Offset int
}

// SearchFilter narrows Searches. Found nil matches both outcomes.
type SearchFilter struct {
	RunID    string
	TextHash string
	Found    *bool
	Limit    int
	Offset   int
}

// KindStats aggregates evaluations of one kind.
type KindStats struct {
	Kind      string
	Count     int
	TotalArea float64
	MaxArea   float64
}

// SearchStats aggregates searches.
type SearchStats struct {
	Hits   int
	Misses int
}
