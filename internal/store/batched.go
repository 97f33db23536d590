package store

import "sync"

// BatchedStore buffers inserts in memory using fake (negative) IDs until
// Store.CommitBatch writes them in one transaction.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// EvaluationsByKind passes through to the underlying Store.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Evaluations []Evaluation
	Searches    []Search

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies Recorder.
var _ Recorder = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for reads.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertEvaluation(ev *Evaluation) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	ev.ID = fakeID
	b.Evaluations = append(b.Evaluations, *ev)
	return fakeID, nil
}

func (b *BatchedStore) InsertSearch(sr *Search) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	sr.ID = fakeID
	b.Searches = append(b.Searches, *sr)
	return fakeID, nil
}

// EvaluationsByKind returns committed evaluations of kind followed by
// buffered ones.
func (b *BatchedStore) EvaluationsByKind(kind string) ([]*Evaluation, error) {
	evals, err := b.store.EvaluationsByKind(kind)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Evaluations {
		if b.Evaluations[i].Kind == kind {
			evals = append(evals, &b.Evaluations[i])
		}
	}
	return evals, nil
}

// Len returns the number of buffered records.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Evaluations) + len(b.Searches)
}
