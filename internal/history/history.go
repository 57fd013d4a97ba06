// Package history keeps a local audit trail of sync runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gitswift/gitswift/internal/db"
	"github.com/gitswift/gitswift/internal/sync"
	"github.com/jmoiron/sqlx"
)

var ErrRunNotFound = errors.New("history: run not found")

// fixed width so that TEXT ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var migrations = []string{
	`
CREATE TABLE runs (
    id          TEXT PRIMARY KEY,
    repository  TEXT NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    mode        TEXT NOT NULL,
    root        TEXT NOT NULL,
    author      TEXT NOT NULL DEFAULT '',
    started_at  TEXT NOT NULL, -- UTC, fixed width
    finished_at TEXT NOT NULL,
    created     INTEGER NOT NULL,
    updated     INTEGER NOT NULL,
    skipped     INTEGER NOT NULL,
    failed      INTEGER NOT NULL
);

CREATE INDEX idx_runs_started_at ON runs(started_at);

CREATE TABLE outcomes (
    run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq      INTEGER NOT NULL,
    path     TEXT NOT NULL,
    action   TEXT NOT NULL,
    size     INTEGER NOT NULL,
    op       TEXT NOT NULL DEFAULT '',
    error    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, seq)
);
`,
}

// Run is a summary row.
type Run struct {
	ID         string    `db:"id" json:"id" yaml:"id"`
	Repository string    `db:"repository" json:"repository" yaml:"repository"`
	URL        string    `db:"url" json:"url,omitempty" yaml:"url,omitempty"`
	Mode       string    `db:"mode" json:"mode" yaml:"mode"`
	Root       string    `db:"root" json:"root" yaml:"root"`
	Author     string    `db:"author" json:"author,omitempty" yaml:"author,omitempty"`
	Started    time.Time `db:"-" json:"started" yaml:"started"`
	Finished   time.Time `db:"-" json:"finished" yaml:"finished"`
	Created    int       `db:"created" json:"created" yaml:"created"`
	Updated    int       `db:"updated" json:"updated" yaml:"updated"`
	Skipped    int       `db:"skipped" json:"skipped" yaml:"skipped"`
	Failed     int       `db:"failed" json:"failed" yaml:"failed"`
}

// Entry is one stored file outcome.
type Entry struct {
	Path   string `db:"path" json:"path" yaml:"path"`
	Action string `db:"action" json:"action" yaml:"action"`
	Size   int64  `db:"size" json:"size" yaml:"size"`
	Op     string `db:"op" json:"op,omitempty" yaml:"op,omitempty"`
	Error  string `db:"error" json:"error,omitempty" yaml:"error,omitempty"`
}

// RunDetail is a run with its outcomes in traversal order.
type RunDetail struct {
	Run     `yaml:",inline"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// dbRun is used for scanning, timestamps are stored as TEXT.
type dbRun struct {
	Run
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
}

type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the history database at path. Use db.MemoryPath in tests.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := db.Open(db.WithPath(path))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := db.Migrate(ctx, conn, migrations); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a report and its outcomes atomically.
func (s *Store) Record(ctx context.Context, r *sync.Report) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, repository, url, mode, root, author, started_at, finished_at, created, updated, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Repository, r.URL, string(r.Mode), r.Root, r.Author,
		formatTime(r.Started), formatTime(r.Finished),
		r.Count(sync.ActionCreated), r.Count(sync.ActionUpdated),
		r.Count(sync.ActionSkippedIdentical), r.Count(sync.ActionFailed),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO outcomes (run_id, seq, path, action, size, op, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("record outcomes: %w", err)
	}
	defer stmt.Close()

	for i, o := range r.Outcomes {
		var op string
		if o.Err != nil {
			op = string(o.Err.Op)
		}
		if _, err := stmt.ExecContext(ctx, r.RunID, i, o.Path, string(o.Action), o.Size, op, o.Error()); err != nil {
			return fmt.Errorf("record outcome %s: %w", o.Path, err)
		}
	}

	return tx.Commit()
}

// List returns the most recent runs first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT * FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []dbRun
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Get returns one run with its outcomes. A run ID prefix is accepted when it is unambiguous.
func (s *Store) Get(ctx context.Context, id string) (*RunDetail, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}

	var rows []dbRun
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM runs WHERE id LIKE ? || '%' ESCAPE '\' LIMIT 2`, escapeLike(id)); err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	switch {
	case len(rows) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case len(rows) > 1:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}

	run, err := rows[0].toRun()
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{Run: run}
	err = s.db.SelectContext(ctx, &detail.Entries,
		`SELECT path, action, size, op, error FROM outcomes WHERE run_id = ? ORDER BY seq`, run.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get outcomes %s: %w", run.ID, err)
	}
	return detail, nil
}

func (r dbRun) toRun() (Run, error) {
	run := r.Run
	var err error
	if run.Started, err = time.Parse(timeLayout, r.StartedAt); err != nil {
		return Run{}, fmt.Errorf("parse started_at for %s: %w", r.ID, err)
	}
	if run.Finished, err = time.Parse(timeLayout, r.FinishedAt); err != nil {
		return Run{}, fmt.Errorf("parse finished_at for %s: %w", r.ID, err)
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func escapeLike(s string) string {
	r := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return string(r)
}
