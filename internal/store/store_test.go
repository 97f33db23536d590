package store

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// insertTestRun inserts a run with the given ID.
func insertTestRun(t *testing.T, s *Store, id string) *Run {
	t.Helper()
	r := &Run{ID: id, Source: "test", StartedAt: time.Now().Truncate(time.Second)}
	require.NoError(t, s.InsertRun(r))
	return r
}

// insertTestEvaluation inserts an evaluation with minimal required fields.
func insertTestEvaluation(t *testing.T, s *Store, runID, kind string, area float64, params ...float64) *Evaluation {
	t.Helper()
	ev := &Evaluation{RunID: runID, Kind: kind, Params: params, Area: area}
	id, err := s.InsertEvaluation(ev)
	require.NoError(t, err)
	require.Positive(t, id)
	return ev
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"runs", "evaluations", "searches", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())

	v, err := s.GetMetadata("schema_version")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestMigrate_RejectsOtherSchemaVersion(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SetMetadata("schema_version", "99"))

	err := s.Migrate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version 99")
}

func TestNewStore_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := NewStore("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("k", "one"))
	require.NoError(t, s.SetMetadata("k", "two"))
	v, err = s.GetMetadata("k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

// =============================================================================
// Runs
// =============================================================================

func TestRuns(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	got, err := s.RunByID("nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	r := insertTestRun(t, s, "run-1")
	got, err = s.RunByID("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r.Source, got.Source)
	assert.True(t, r.StartedAt.Equal(got.StartedAt))

	insertTestRun(t, s, "run-2")
	runs, err := s.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	require.Error(t, s.InsertRun(&Run{ID: "run-1", Source: "dup"}), "run IDs are unique")
}

func TestDeleteRun(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "a")
	insertTestRun(t, s, "b")
	insertTestEvaluation(t, s, "a", "square", 4, 2)
	insertTestEvaluation(t, s, "b", "square", 9, 3)
	_, err := s.InsertSearch(&Search{RunID: "a", Source: "inline", Text: "abc", Target: "a", Position: ptr(0)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun("a"))

	evals, err := s.Evaluations(EvaluationFilter{})
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, "b", evals[0].RunID)

	searches, err := s.Searches(SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, searches)
}

// =============================================================================
// Evaluations
// =============================================================================

func TestEvaluation_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")

	ev := insertTestEvaluation(t, s, "r", "rectangle", 6, 2, 3)

	got, err := s.EvaluationsByKind("rectangle")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)
	assert.Equal(t, "r", got[0].RunID)
	assert.Equal(t, []float64{2, 3}, got[0].Params)
	assert.Equal(t, 6.0, got[0].Area)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestEvaluation_NaNAreaStoredAsNull(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")
	insertTestEvaluation(t, s, "r", "circle", math.NaN(), math.NaN())

	got, err := s.EvaluationsByKind("circle")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, math.IsNaN(got[0].Area))
	require.Len(t, got[0].Params, 1)
	assert.True(t, math.IsNaN(got[0].Params[0]))
}

func TestParams_NonFiniteRoundTrip(t *testing.T) {
	t.Parallel()
	in := []float64{math.Inf(1), math.Inf(-1), 2.5}
	out := unmarshalParams(marshalParams(in))
	assert.Equal(t, in, out)
	assert.Equal(t, "[]", marshalParams(nil))
	assert.Nil(t, unmarshalParams("null"))
}

func TestEvaluation_UnknownRunRejected(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.InsertEvaluation(&Evaluation{RunID: "ghost", Kind: "square", Params: []float64{1}, Area: 1})
	require.Error(t, err, "foreign keys are enforced")
}

func TestEvaluations_Filter(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "a")
	insertTestRun(t, s, "b")
	insertTestEvaluation(t, s, "a", "square", 1, 1)
	insertTestEvaluation(t, s, "a", "circle", math.Pi, 1)
	insertTestEvaluation(t, s, "b", "square", 4, 2)
	last := insertTestEvaluation(t, s, "b", "square", 9, 3)

	all, err := s.Evaluations(EvaluationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, last.ID, all[0].ID, "newest first")

	squares, err := s.Evaluations(EvaluationFilter{Kind: "square"})
	require.NoError(t, err)
	assert.Len(t, squares, 3)

	bSquares, err := s.Evaluations(EvaluationFilter{Kind: "square", RunID: "b"})
	require.NoError(t, err)
	assert.Len(t, bSquares, 2)

	page, err := s.Evaluations(EvaluationFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].ID, page[0].ID)

	tail, err := s.Evaluations(EvaluationFilter{Offset: 3})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, all[3].ID, tail[0].ID)
}

func TestEvaluationsByIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")
	a := insertTestEvaluation(t, s, "r", "square", 1, 1)
	insertTestEvaluation(t, s, "r", "square", 4, 2)
	c := insertTestEvaluation(t, s, "r", "square", 9, 3)

	got, err := s.EvaluationsByIDs([]int64{c.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, c.ID, got[1].ID)

	none, err := s.EvaluationsByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestKindStats(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")
	insertTestEvaluation(t, s, "r", "square", 4, 2)
	insertTestEvaluation(t, s, "r", "square", 9, 3)
	insertTestEvaluation(t, s, "r", "rectangle", 6, 2, 3)

	stats, err := s.KindStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, KindStats{Kind: "rectangle", Count: 1, TotalArea: 6, MaxArea: 6}, stats[0])
	assert.Equal(t, KindStats{Kind: "square", Count: 2, TotalArea: 13, MaxArea: 9}, stats[1])
}

// =============================================================================
// Searches
// =============================================================================

func TestSearch_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")

	hit := &Search{RunID: "r", Source: "inline", Text: "banana", Target: "a", Position: ptr(1)}
	_, err := s.InsertSearch(hit)
	require.NoError(t, err)
	assert.Equal(t, TextHash("banana"), hit.TextHash)

	miss := &Search{RunID: "r", Source: "/tmp/x.txt", Text: "xyz", Target: "a"}
	_, err = s.InsertSearch(miss)
	require.NoError(t, err)

	got, err := s.Searches(SearchFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, miss.ID, got[0].ID)
	assert.Nil(t, got[0].Position, "not found is stored as NULL, never a sentinel")
	assert.Equal(t, "/tmp/x.txt", got[0].Source)

	require.NotNil(t, got[1].Position)
	assert.Equal(t, 1, *got[1].Position)
	assert.Equal(t, "banana", got[1].Text)
}

func TestSearches_FilterByOutcome(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")
	for _, sr := range []*Search{
		{RunID: "r", Source: "inline", Text: "aaa", Target: "a", Position: ptr(0)},
		{RunID: "r", Source: "inline", Text: "", Target: "a"},
		{RunID: "r", Source: "inline", Text: "xyz", Target: "a"},
	} {
		_, err := s.InsertSearch(sr)
		require.NoError(t, err)
	}

	hits, err := s.Searches(SearchFilter{Found: ptr(true)})
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	misses, err := s.Searches(SearchFilter{Found: ptr(false)})
	require.NoError(t, err)
	assert.Len(t, misses, 2)

	stats, err := s.SearchStats()
	require.NoError(t, err)
	assert.Equal(t, SearchStats{Hits: 1, Misses: 2}, stats)
}

func TestSearches_ByTextHash(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestRun(t, s, "r")
	for target, pos := range map[string]*int{"a": ptr(1), "n": ptr(2), "z": nil} {
		_, err := s.InsertSearch(&Search{RunID: "r", Source: "inline", Text: "banana", Target: target, Position: pos})
		require.NoError(t, err)
	}
	_, err := s.InsertSearch(&Search{RunID: "r", Source: "inline", Text: "other", Target: "a"})
	require.NoError(t, err)

	got, err := s.Searches(SearchFilter{TextHash: TextHash("banana")})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.Searches(SearchFilter{TextHash: TextHash("banana"), Found: ptr(false)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "z", got[0].Target)
}

func TestSearchStats_Empty(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	stats, err := s.SearchStats()
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestTextHash_Deterministic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, TextHash("raman"), TextHash("raman"))
	assert.NotEqual(t, TextHash("raman"), TextHash("ramen"))
	assert.Len(t, TextHash(""), 64)
}
