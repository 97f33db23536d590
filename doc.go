// Package shapes computes areas over a closed set of shape variants and
// finds the first occurrence of a character in text, recording each result
// to a SQLite history that can be queried and scripted.
//
// # Core
//
// The two pure operations need no Engine:
//
//	a := shapes.Area(shapes.Rectangle{Width: 2, Height: 3}) // 6
//	r := shapes.FindFirst("banana", 'a')                    // found at index 1
//	if i, ok := r.Index(); ok { ... }
//
// [Shape] is sealed: only [Circle], [Square] and [Rectangle] satisfy it, and
// [Area] handles each of them explicitly. [FindFirst] counts positions in
// characters (runes), not bytes, and reports absence through [SearchResult]
// rather than a sentinel index.
//
// # Engine
//
// An [Engine] wraps the core with a history database and a Risor script
// runtime:
//
//	e, err := shapes.New(".shapes/history.db", "", shapes.WithScriptsFS(scripts.FS))
//	if err != nil { ... }
//	defer e.Close()
//
//	ev, err := e.Area(ctx, shapes.Circle{Radius: 2})
//	res, err := e.FindFirstInFile(ctx, "sample1.txt", 'a')
//	out, err := e.RunScript(ctx, "demo.risor")
//
// Every Engine has a run ID; everything it records is stored under it.
// [Engine.AreaBatch] evaluates many shapes concurrently and commits them in
// one transaction.
//
// # Scripts
//
// Scripts see circle, square and rectangle constructors, area, find_first,
// record_area, record_search, evaluations_by_kind, run_id and log. See the
// internal/runtime package for details.
//
// # Queries
//
// [Engine.Query] returns a [QueryBuilder] over the recorded history:
// evaluations, searches and an aggregate [Summary].
package shapes
