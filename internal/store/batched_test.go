package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_FakeIDsAreNegative(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore(s)

	id1, err := batch.InsertEvaluation(&Evaluation{RunID: "r", Kind: "square", Params: []float64{2}, Area: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id1)

	id2, err := batch.InsertSearch(&Search{RunID: "r", Source: "inline", Text: "a", Target: "a", Position: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), id2)
	assert.Equal(t, 2, batch.Len())
}

func TestBatchedStore_EvaluationsByKind_MergesWithDatabase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")
	insertTestEvaluation(t, s, "r", "square", 1, 1)

	batch := NewBatchedStore(s)
	_, err := batch.InsertEvaluation(&Evaluation{RunID: "r", Kind: "square", Params: []float64{2}, Area: 4})
	require.NoError(t, err)
	_, err = batch.InsertEvaluation(&Evaluation{RunID: "r", Kind: "circle", Params: []float64{1}, Area: 3.14})
	require.NoError(t, err)

	evals, err := batch.EvaluationsByKind("square")
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Positive(t, evals[0].ID, "committed rows come first")
	assert.Negative(t, evals[1].ID)
}

func TestCommitBatch_RemapsIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")

	batch := NewBatchedStore(s)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			side := float64(i)
			_, err := batch.InsertEvaluation(&Evaluation{RunID: "r", Kind: "square", Params: []float64{side}, Area: side * side})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err := batch.InsertSearch(&Search{RunID: "r", Source: "inline", Text: "xyz", Target: "a"})
	require.NoError(t, err)

	mapping, err := s.CommitBatch(batch)
	require.NoError(t, err)
	require.Len(t, mapping, 21)
	for fake, real := range mapping {
		assert.Negative(t, fake)
		assert.Positive(t, real)
	}

	evals, err := s.EvaluationsByKind("square")
	require.NoError(t, err)
	assert.Len(t, evals, 20)

	searches, err := s.Searches(SearchFilter{})
	require.NoError(t, err)
	require.Len(t, searches, 1)
	assert.Nil(t, searches[0].Position)
}

func TestCommitBatch_RollsBackOnError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")

	batch := NewBatchedStore(s)
	_, err := batch.InsertEvaluation(&Evaluation{RunID: "r", Kind: "square", Params: []float64{1}, Area: 1})
	require.NoError(t, err)
	_, err = batch.InsertEvaluation(&Evaluation{RunID: "missing-run", Kind: "square", Params: []float64{2}, Area: 4})
	require.NoError(t, err)

	_, err = s.CommitBatch(batch)
	require.Error(t, err)

	evals, err := s.Evaluations(EvaluationFilter{})
	require.NoError(t, err)
	assert.Empty(t, evals, "failed batch must leave no rows behind")
}
