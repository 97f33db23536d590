package store

import (
	"database/sql"
	"fmt"
	"time"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// --- Run operations ---

func (s *Store) InsertRun(r *Run) error {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := s.db.Exec(
		"INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)",
		r.ID, r.Source, r.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RunByID returns the run, or nil when it does not exist.
func (s *Store) RunByID(id string) (*Run, error) {
	r := &Run{}
	err := s.db.QueryRow(
		"SELECT id, source, started_at FROM runs WHERE id = ?", id,
	).Scan(&r.ID, &r.Source, &r.StartedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run by id: %w", err)
	}
	return r, nil
}

// Runs returns all runs, newest first.
func (s *Store) Runs() ([]*Run, error) {
	rows, err := s.db.Query("SELECT id, source, started_at FROM runs ORDER BY started_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.Source, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// --- Evaluation operations ---

func (s *Store) InsertEvaluation(ev *Evaluation) (int64, error) {
	return insertEvaluation(s.db, ev)
}

func insertEvaluation(x execer, ev *Evaluation) (int64, error) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	res, err := x.Exec(
		"INSERT INTO evaluations (run_id, kind, params, area, created_at) VALUES (?, ?, ?, ?, ?)",
		ev.RunID, ev.Kind, marshalParams(ev.Params), areaValue(ev.Area), ev.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert evaluation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	ev.ID = id
	return id, nil
}

// EvaluationsByKind returns every evaluation of kind in insertion order.
func (s *Store) EvaluationsByKind(kind string) ([]*Evaluation, error) {
	rows, err := s.db.Query(
		"SELECT id, run_id, kind, params, area, created_at FROM evaluations WHERE kind = ? ORDER BY id", kind,
	)
	if err != nil {
		return nil, fmt.Errorf("evaluations by kind: %w", err)
	}
	defer rows.Close()
	return scanEvaluations(rows)
}

// EvaluationsByIDs returns the evaluations with the given IDs in ID order.
func (s *Store) EvaluationsByIDs(ids []int64) ([]*Evaluation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(
		"SELECT id, run_id, kind, params, area, created_at FROM evaluations WHERE id IN ("+placeholderList(len(ids))+") ORDER BY id",
		int64sToArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("evaluations by ids: %w", err)
	}
	defer rows.Close()
	return scanEvaluations(rows)
}

// Evaluations returns evaluations matching f, newest first.
func (s *Store) Evaluations(f EvaluationFilter) ([]*Evaluation, error) {
	var conds []string
	var args []any
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.RunID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, f.RunID)
	}
	page, pageArgs := pageClause(f.Limit, f.Offset)

	rows, err := s.db.Query(
		"SELECT id, run_id, kind, params, area, created_at FROM evaluations"+
			whereClause(conds)+" ORDER BY id DESC"+page,
		append(args, pageArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("evaluations: %w", err)
	}
	defer rows.Close()
	return scanEvaluations(rows)
}

func scanEvaluations(rows *sql.Rows) ([]*Evaluation, error) {
	var evals []*Evaluation
	for rows.Next() {
		ev := &Evaluation{}
		var params string
		var area sql.NullFloat64
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Kind, &params, &area, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		ev.Params = unmarshalParams(params)
		ev.Area = areaFromNull(area)
		evals = append(evals, ev)
	}
	return evals, rows.Err()
}

// KindStats aggregates evaluations per kind, ordered by kind.
func (s *Store) KindStats() ([]KindStats, error) {
	rows, err := s.db.Query(
		`SELECT kind, COUNT(*), COALESCE(SUM(area), 0), COALESCE(MAX(area), 0)
		 FROM evaluations GROUP BY kind ORDER BY kind`,
	)
	if err != nil {
		return nil, fmt.Errorf("kind stats: %w", err)
	}
	defer rows.Close()
	var stats []KindStats
	for rows.Next() {
		var ks KindStats
		if err := rows.Scan(&ks.Kind, &ks.Count, &ks.TotalArea, &ks.MaxArea); err != nil {
			return nil, fmt.Errorf("scan kind stats: %w", err)
		}
		stats = append(stats, ks)
	}
	return stats, rows.Err()
}

// --- Search operations ---

func (s *Store) InsertSearch(sr *Search) (int64, error) {
	return insertSearch(s.db, sr)
}

func insertSearch(x execer, sr *Search) (int64, error) {
	if sr.CreatedAt.IsZero() {
		sr.CreatedAt = time.Now()
	}
	if sr.TextHash == "" {
		sr.TextHash = TextHash(sr.Text)
	}
	res, err := x.Exec(
		`INSERT INTO searches (run_id, source, text, text_hash, target, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sr.RunID, sr.Source, sr.Text, sr.TextHash, sr.Target, sr.Position, sr.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert search: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	sr.ID = id
	return id, nil
}

// Searches returns searches matching f, newest first.
func (s *Store) Searches(f SearchFilter) ([]*Search, error) {
	var conds []string
	var args []any
	if f.RunID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.TextHash != "" {
		conds = append(conds, "text_hash = ?")
		args = append(args, f.TextHash)
	}
	if f.Found != nil {
		if *f.Found {
			conds = append(conds, "position IS NOT NULL")
		} else {
			conds = append(conds, "position IS NULL")
		}
	}
	page, pageArgs := pageClause(f.Limit, f.Offset)

	rows, err := s.db.Query(
		"SELECT id, run_id, source, text, text_hash, target, position, created_at FROM searches"+
			whereClause(conds)+" ORDER BY id DESC"+page,
		append(args, pageArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("searches: %w", err)
	}
	defer rows.Close()
	return scanSearches(rows)
}

func scanSearches(rows *sql.Rows) ([]*Search, error) {
	var out []*Search
	for rows.Next() {
		sr := &Search{}
		var pos sql.NullInt64
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Source, &sr.Text, &sr.TextHash, &sr.Target, &pos, &sr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		if pos.Valid {
			p := int(pos.Int64)
			sr.Position = &p
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// SearchStats counts hits and misses across all searches.
func (s *Store) SearchStats() (SearchStats, error) {
	var st SearchStats
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN position IS NOT NULL THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN position IS NULL THEN 1 ELSE 0 END), 0)
		 FROM searches`,
	).Scan(&st.Hits, &st.Misses)
	if err != nil {
		return st, fmt.Errorf("search stats: %w", err)
	}
	return st, nil
}
