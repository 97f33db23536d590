package shapes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jward/shapes/internal/geometry"
	"github.com/jward/shapes/internal/runtime"
	"github.com/jward/shapes/internal/store"
	"github.com/jward/shapes/internal/textscan"
)

var (
	// ErrNilShape is returned by Engine methods given a nil Shape.
	ErrNilShape = errors.New("nil shape")
	// ErrRunNotFound is returned by DeleteRun for an unknown run ID.
	ErrRunNotFound = errors.New("run not found")
)

// Engine evaluates shapes and searches, records results to the history
// database, and runs Risor scripts against the same host functions.
type Engine struct {
	store      *store.Store
	runtime    *runtime.Runtime
	scriptsDir string
	scriptsFS  fs.FS
	logger     *zap.Logger

	runID       string
	source      string
	concurrency int

	// record toggles persistence. When false, script recording goes to a
	// BatchedStore that is never committed.
	record bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithScriptsFS configures the Engine to load Risor scripts from the given
// filesystem instead of from the scriptsDir path on disk. This enables
// embedding scripts via go:embed.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithLogger sets the logger for the Engine and its scripts.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// WithSource labels the run, e.g. with the CLI command that created it.
func WithSource(source string) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithConcurrency bounds the number of goroutines AreaBatch uses. Values
// below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.concurrency = n
		}
	}
}

// WithRecording controls whether results are written to the history.
// Recording is on by default.
func WithRecording(record bool) Option {
	return func(e *Engine) {
		e.record = record
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
// Script loading priority:
//  1. If WithScriptsFS is set, use the provided fs.FS
//  2. Otherwise, use scriptsDir on disk
//
// The scriptsDir parameter may be empty when WithScriptsFS is used.
func New(dbPath string, scriptsDir string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("shapes: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("shapes: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		scriptsDir:  scriptsDir,
		logger:      zap.NewNop(),
		source:      "engine",
		concurrency: 4,
		record:      true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}

	var rec store.Recorder = s
	if e.record {
		if err := s.InsertRun(&store.Run{ID: e.runID, Source: e.source}); err != nil {
			s.Close()
			return nil, fmt.Errorf("shapes: start run: %w", err)
		}
	} else {
		rec = store.NewBatchedStore(s)
	}

	rtOpts := []runtime.RuntimeOption{
		runtime.WithRunID(e.runID),
		runtime.WithRuntimeLogger(e.logger),
	}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	e.runtime = runtime.NewRuntime(rec, scriptsDir, rtOpts...)

	e.logger.Debug("engine ready",
		zap.String("run_id", e.runID),
		zap.String("db", dbPath),
		zap.Bool("record", e.record),
	)
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// RunID returns the ID everything this Engine records is stored under.
func (e *Engine) RunID() string {
	return e.runID
}

// DeleteRun removes a run and everything recorded under it. The Engine's
// own run cannot be deleted while recording.
func (e *Engine) DeleteRun(runID string) error {
	if e.record && runID == e.runID {
		return fmt.Errorf("shapes: delete run %s: run is in use", runID)
	}
	run, err := e.store.RunByID(runID)
	if err != nil {
		return fmt.Errorf("shapes: delete run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("shapes: delete run %s: %w", runID, ErrRunNotFound)
	}
	if err := e.store.DeleteRun(runID); err != nil {
		return fmt.Errorf("shapes: %w", err)
	}
	e.logger.Debug("run deleted", zap.String("run_id", runID))
	return nil
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Area computes the area of s and records it. The returned Evaluation has
// ID 0 when recording is off.
func (e *Engine) Area(ctx context.Context, s Shape) (Evaluation, error) {
	if s == nil {
		return Evaluation{}, fmt.Errorf("shapes: area: %w", ErrNilShape)
	}
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}

	ev := e.evaluate(s)
	if e.record {
		id, err := e.store.InsertEvaluation(&ev)
		if err != nil {
			return Evaluation{}, fmt.Errorf("shapes: area: %w", err)
		}
		ev.ID = id
	}
	e.logger.Debug("area",
		zap.String("kind", ev.Kind),
		zap.Float64s("params", ev.Params),
		zap.Float64("area", ev.Area),
	)
	return ev, nil
}

// AreaBatch computes the areas of shapes concurrently, bounded by the
// configured concurrency, and records them in a single transaction. Results
// are in input order. Nothing is recorded if any shape fails.
func (e *Engine) AreaBatch(ctx context.Context, shapes []Shape) ([]Evaluation, error) {
	for i, s := range shapes {
		if s == nil {
			return nil, fmt.Errorf("shapes: area batch: item %d: %w", i, ErrNilShape)
		}
	}

	results := make([]Evaluation, len(shapes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, s := range shapes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.evaluate(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("shapes: area batch: %w", err)
	}

	if e.record && len(results) > 0 {
		// Buffer in input order so real IDs ascend with the input.
		batch := store.NewBatchedStore(e.store)
		for i := range results {
			if _, err := batch.InsertEvaluation(&results[i]); err != nil {
				return nil, fmt.Errorf("shapes: area batch: %w", err)
			}
		}
		ids, err := e.store.CommitBatch(batch)
		if err != nil {
			return nil, fmt.Errorf("shapes: area batch: %w", err)
		}
		for i := range results {
			results[i].ID = ids[results[i].ID]
		}
	}

	e.logger.Debug("area batch",
		zap.Int("count", len(results)),
		zap.Int("concurrency", e.concurrency),
	)
	return results, nil
}

func (e *Engine) evaluate(s Shape) Evaluation {
	return Evaluation{
		RunID:     e.runID,
		Kind:      string(s.Kind()),
		Params:    geometry.Params(s),
		Area:      geometry.Area(s),
		CreatedAt: time.Now(),
	}
}

// FindFirst finds the first target in text and records the search.
func (e *Engine) FindFirst(ctx context.Context, text string, target rune) (SearchResult, error) {
	return e.find(ctx, "text", text, target)
}

// ExcerptSize bounds the file contents kept with a recorded file search.
// The full contents are identified by the recorded text hash.
const ExcerptSize = 4096

// FindFirstInFile streams the file at path and finds the first target in
// its contents. A file that cannot be read is an error; the search is then
// not recorded.
func (e *Engine) FindFirstInFile(ctx context.Context, path string, target rune) (SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return textscan.NotFound(), err
	}
	f, err := os.Open(path)
	if err != nil {
		return textscan.NotFound(), fmt.Errorf("shapes: find in file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	excerpt := &excerptWriter{limit: ExcerptSize}
	r := io.TeeReader(f, io.MultiWriter(h, excerpt))

	res, err := textscan.FindFirstReader(r, target)
	if err != nil {
		return textscan.NotFound(), fmt.Errorf("shapes: find in file %s: %w", path, err)
	}
	// The scan stops at the first match; the hash covers the whole file.
	if _, err := io.Copy(io.Discard, r); err != nil {
		return textscan.NotFound(), fmt.Errorf("shapes: find in file %s: %w", path, err)
	}

	sr := &store.Search{
		Source:   "file:" + path,
		Text:     string(excerpt.buf),
		TextHash: hex.EncodeToString(h.Sum(nil)),
	}
	if err := e.recordSearch(sr, target, res); err != nil {
		return textscan.NotFound(), err
	}
	return res, nil
}

func (e *Engine) find(ctx context.Context, source, text string, target rune) (SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return textscan.NotFound(), err
	}

	res := textscan.FindFirst(text, target)
	if err := e.recordSearch(&store.Search{Source: source, Text: text}, target, res); err != nil {
		return textscan.NotFound(), err
	}
	return res, nil
}

// recordSearch fills in the outcome of a search and stores it when
// recording is on.
func (e *Engine) recordSearch(sr *store.Search, target rune, res SearchResult) error {
	sr.RunID = e.runID
	sr.Target = string(target)
	if i, ok := res.Index(); ok {
		sr.Position = &i
	}
	if e.record {
		if _, err := e.store.InsertSearch(sr); err != nil {
			return fmt.Errorf("shapes: find: %w", err)
		}
	}
	e.logger.Debug("find first",
		zap.String("source", sr.Source),
		zap.String("target", sr.Target),
		zap.Stringer("result", res),
	)
	return nil
}

// excerptWriter keeps the first limit bytes written to it.
type excerptWriter struct {
	buf   []byte
	limit int
}

func (w *excerptWriter) Write(p []byte) (int, error) {
	if room := w.limit - len(w.buf); room > 0 {
		w.buf = append(w.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

// RunScript loads the script at path (from the scripts FS or directory) and
// returns the value of its last expression as Go data.
func (e *Engine) RunScript(ctx context.Context, path string) (any, error) {
	out, err := e.runtime.RunScript(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("shapes: %w", err)
	}
	return out, nil
}

// RunSource evaluates Risor source with the same globals as RunScript.
func (e *Engine) RunSource(ctx context.Context, src string) (any, error) {
	out, err := e.runtime.RunSource(ctx, src, nil)
	if err != nil {
		return nil, fmt.Errorf("shapes: %w", err)
	}
	return out, nil
}
