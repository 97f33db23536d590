package store

import "fmt"

// CommitBatch inserts all buffered records from a BatchedStore within a
// single transaction and returns a mapping from fake (negative) IDs to the
// real IDs SQLite assigned. The batch itself is left unchanged.
func (s *Store) CommitBatch(batch *BatchedStore) (map[int64]int64, error) {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64, len(batch.Evaluations)+len(batch.Searches))

	for _, ev := range batch.Evaluations {
		fakeID := ev.ID
		realID, err := insertEvaluation(tx, &ev)
		if err != nil {
			return nil, fmt.Errorf("commit batch: evaluation %d: %w", fakeID, err)
		}
		fakeToReal[fakeID] = realID
	}

	for _, sr := range batch.Searches {
		fakeID := sr.ID
		realID, err := insertSearch(tx, &sr)
		if err != nil {
			return nil, fmt.Errorf("commit batch: search %d: %w", fakeID, err)
		}
		fakeToReal[fakeID] = realID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: commit: %w", err)
	}
	return fakeToReal, nil
}
