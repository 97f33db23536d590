package runtime

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jward/shapes/internal/store"
)

// newTestStore creates a migrated Store with one run named "run-1".
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.InsertRun(&store.Run{ID: "run-1", Source: "test"}))
	t.Cleanup(func() { s.Close() })
	return s
}

// --- Host functions ---

func TestRunSource_ShapeConstructors(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	got, err := rt.RunSource(context.Background(), `rectangle(2, 3.5)`, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"kind":   "rectangle",
		"params": []any{2.0, 3.5},
	}, got)
}

func TestRunSource_Area(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")
	ctx := context.Background()

	tests := []struct {
		src  string
		want float64
	}{
		{`area(circle(2))`, math.Pi * 4},
		{`area(square(3))`, 9},
		{`area(rectangle(2, 3))`, 6},
		{`area(rectangle(3, 2))`, 6},
		{`area({"kind": "Square", "params": [1.5]})`, 2.25},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := rt.RunSource(ctx, tt.src, nil)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestRunSource_AreaErrors(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")
	ctx := context.Background()

	for _, src := range []string{
		`circle()`,
		`rectangle(1)`,
		`square("big")`,
		`area(42)`,
		`area({"kind": "triangle", "params": [1, 2, 3]})`,
		`area({"kind": "circle", "params": [1, 2]})`,
		`area({"kind": "circle"})`,
	} {
		_, err := rt.RunSource(ctx, src, nil)
		assert.Error(t, err, "expected error for %s", src)
	}
}

func TestRunSource_FindFirst(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")
	ctx := context.Background()

	got, err := rt.RunSource(ctx, `find_first("banana", "a")`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = rt.RunSource(ctx, `find_first("héllo", "l")`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got, "positions are in characters, not bytes")

	got, err = rt.RunSource(ctx, `find_first("xyz", "a")`, nil)
	require.NoError(t, err)
	assert.Nil(t, got, "not found is nil, never -1")

	script := `
idx := find_first("", "a")
assert(idx == nil, 'expected nil, got {idx}')
`
	_, err = rt.RunSource(ctx, script, nil)
	require.NoError(t, err)
}

func TestRunSource_FindFirstRequiresOneCharacter(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")
	ctx := context.Background()

	for _, src := range []string{
		`find_first("banana", "an")`,
		`find_first("banana", "")`,
		`find_first("banana", 97)`,
		`find_first(1, "a")`,
		`find_first("banana")`,
	} {
		_, err := rt.RunSource(ctx, src, nil)
		assert.Error(t, err, "expected error for %s", src)
	}
}

func TestRunSource_ExtraGlobals(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	got, err := rt.RunSource(context.Background(), `area(square(side))`, map[string]any{"side": 4})
	require.NoError(t, err)
	assert.InDelta(t, 16.0, got, 0)
}

func TestRunSource_RecordingAbsentWithoutRecorder(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	_, err := rt.RunSource(context.Background(), `record_area(square(1))`, nil)
	require.Error(t, err)
}

// --- Recording ---

func TestRunSource_RecordArea(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	rt := NewRuntime(s, "", WithRunID("run-1"))

	script := `
a := record_area(square(3))
b := record_area(rectangle(2, 5))
assert(a == 9.0, 'expected 9, got {a}')
a + b
`
	got, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	assert.InDelta(t, 19.0, got, 0)

	evals, err := s.Evaluations(store.EvaluationFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, "rectangle", evals[0].Kind)
	assert.Equal(t, []float64{2, 5}, evals[0].Params)
	assert.Equal(t, 10.0, evals[0].Area)
}

func TestRunSource_RecordSearch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	rt := NewRuntime(s, "", WithRunID("run-1"))

	script := `
hit := record_search("raman", "a")
miss := record_search("xyz", "a")
assert(miss == nil, "miss should be nil")
hit
`
	got, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	searches, err := s.Searches(store.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, searches, 2)
	assert.Nil(t, searches[0].Position)
	require.NotNil(t, searches[1].Position)
	assert.Equal(t, 1, *searches[1].Position)
	assert.Equal(t, "script", searches[1].Source)
}

func TestRunSource_EvaluationsByKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	rt := NewRuntime(s, "", WithRunID("run-1"))

	script := `
record_area(circle(1))
record_area(square(2))
record_area(square(3))
evals := evaluations_by_kind("square")
total := 0.0
for _, ev := range evals {
	total += ev["area"]
}
[len(evals), total, run_id]
`
	got, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), 13.0, "run-1"}, got)
}

func TestRunSource_RecordIntoBatchedStore(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := store.NewBatchedStore(s)
	rt := NewRuntime(batch, "", WithRunID("run-1"))

	_, err := rt.RunSource(context.Background(), `record_area(square(2))`, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Len())

	evals, err := s.Evaluations(store.EvaluationFilter{})
	require.NoError(t, err)
	assert.Empty(t, evals, "nothing hits SQLite until CommitBatch")

	_, err = s.CommitBatch(batch)
	require.NoError(t, err)
	evals, err = s.Evaluations(store.EvaluationFilter{})
	require.NoError(t, err)
	assert.Len(t, evals, 1)
}

// --- Logging ---

func TestLogObject_RoutesToZap(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	rt := NewRuntime(nil, "", WithRuntimeLogger(zap.New(core)))

	_, err := rt.RunSource(context.Background(), `log.Warn("careful")`, nil)
	require.NoError(t, err)

	entries := logs.FilterMessage("careful").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "script", entries[0].ContextMap()["component"])
}

// --- Script loading ---

func TestRunScript_LoadsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`area(square(2))`), 0644))

	rt := NewRuntime(nil, dir)
	got, err := rt.RunScript(context.Background(), "test.risor", nil)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 0)
}

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, t.TempDir())

	_, err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"lib/geometry.risor": &fstest.MapFile{Data: []byte(content)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("lib/geometry.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Absolute-style path should be resolved within the FS.
	got, err = rt.LoadScript("/lib/geometry.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestImport_FSImporter(t *testing.T) {
	t.Parallel()
	mapFS := fstest.MapFS{
		"helpers.risor": &fstest.MapFile{Data: []byte(`
func total_area(shapes) {
	sum := 0.0
	for _, s := range shapes {
		sum += area(s)
	}
	return sum
}
`)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import helpers
helpers.total_area([square(1), square(2), rectangle(1, 3)])
`
	got, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, got, 0)
}

func TestImport_LocalImporter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))

	rt := NewRuntime(nil, dir)
	got, err := rt.RunSource(context.Background(), "import math_utils\nmath_utils.double(21)", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}
