package store

// Recorder is the write side used by the engine and by scripts. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for batch
// evaluation) implement it.
type Recorder interface {
	InsertEvaluation(ev *Evaluation) (int64, error)
	InsertSearch(sr *Search) (int64, error)

	// Read passthrough needed by scripts.
	EvaluationsByKind(kind string) ([]*Evaluation, error)
}

// Compile-time check: *Store satisfies Recorder.
var _ Recorder = (*Store)(nil)
