package resultstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"lyricjudge/internal/judge"
)

// ErrNotFound is returned when no run matches an id.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when an id prefix matches more than one run.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// Run describes one judge invocation.
type Run struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	CorpusDir        string    `json:"corpus_dir"`
	OutputsDir       string    `json:"outputs_dir"`
	ShingleSize      int       `json:"shingle_size"`
	CorrectThreshold float64   `json:"correct_threshold"`
	FlagThreshold    float64   `json:"flag_threshold"`
	Documents        int       `json:"documents"`
	Rows             int       `json:"rows"`
	Flagged          int       `json:"flagged"`
	PatternSource    string    `json:"pattern_source"`
}

// NewRunID returns a fresh random run id.
func NewRunID() string {
	return uuid.NewString()
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("open result store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun records a run and its rows in one transaction. A missing run id is
// generated; the stored id is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, rows []judge.Row) (string, error) {
	ctx = ensureContext(ctx)
	if run.ID == "" {
		run.ID = NewRunID()
	}
	run.Rows = len(rows)
	run.Flagged = 0
	for _, r := range rows {
		if r.Flagged {
			run.Flagged++
		}
	}

	err := retryOnBusy(ctx, func() error {
		return s.saveRunTx(ctx, run, rows)
	})
	if err != nil {
		return "", fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

func (s *Store) saveRunTx(ctx context.Context, run Run, rows []judge.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, corpus_dir, outputs_dir, shingle_size,
            correct_threshold, flag_threshold, documents, row_count, flagged, pattern_source
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.CorpusDir,
		run.OutputsDir,
		run.ShingleSize,
		run.CorrectThreshold,
		run.FlagThreshold,
		run.Documents,
		run.Rows,
		run.Flagged,
		run.PatternSource,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_rows (
            run_id, seq, output_path, model, mode, lang, tokens, shingles,
            max_jaccard, best_jaccard_match, max_containment, best_containment_match,
            genre, label, note, flagged
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, r.OutputPath, r.Model, r.Mode, r.Lang, r.Tokens, r.Shingles,
			r.MaxJaccard, r.BestJaccardMatch, r.MaxContainment, r.BestContainmentMatch,
			r.Genre, string(r.Label), r.Note, boolToInt(r.Flagged),
		)
		if err != nil {
			return fmt.Errorf("insert row %s: %w", r.OutputPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, corpus_dir, outputs_dir, shingle_size,
    correct_threshold, flag_threshold, documents, row_count, flagged, pattern_source`

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run whose id equals or uniquely starts with id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY id LIMIT 2",
		id, escapeLike(id)+"%")
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// Rows returns the rows of a run in their original order.
func (s *Store) Rows(ctx context.Context, runID string) ([]judge.Row, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT output_path, model, mode, lang, tokens, shingles, max_jaccard, best_jaccard_match,
            max_containment, best_containment_match, genre, label, note, flagged
        FROM run_rows WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := []judge.Row{}
	for rows.Next() {
		var (
			r       judge.Row
			label   string
			flagged int
		)
		if err := rows.Scan(
			&r.OutputPath, &r.Model, &r.Mode, &r.Lang, &r.Tokens, &r.Shingles, &r.MaxJaccard,
			&r.BestJaccardMatch, &r.MaxContainment, &r.BestContainmentMatch, &r.Genre, &label,
			&r.Note, &flagged,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Label = judge.Label(label)
		r.Flagged = flagged != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// DeleteRun removes a run and its rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
