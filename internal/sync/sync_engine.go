package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gitswift/gitswift/internal/repospec"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 1
	MaxConcurrency     = 16
)

// Observer is called once per completed file. done counts completed files
// of total. Calls are serialized.
type Observer func(done, total int, outcome Outcome)

type Option func(*Engine)

func WithObserver(fn Observer) Option {
	return func(e *Engine) { e.observer = fn }
}

// WithConcurrency bounds how many files are in flight at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		switch {
		case n < 1:
			n = DefaultConcurrency
		case n > MaxConcurrency:
			n = MaxConcurrency
		}
		e.concurrency = n
	}
}

// WithIgnore adds doublestar patterns matched against root-relative paths.
func WithIgnore(patterns ...string) Option {
	return func(e *Engine) { e.excludes = append(e.excludes, patterns...) }
}

// Engine pushes a local directory tree into a remote repository.
// It holds no remote state between calls.
type Engine struct {
	remote      Remote
	observer    Observer
	concurrency int
	excludes    []string
	now         func() time.Time
}

func New(remote Remote, opts ...Option) *Engine {
	e := &Engine{
		remote:      remote,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RepositoryExists reports whether the authenticated account owns a repository named name.
func (e *Engine) RepositoryExists(ctx context.Context, name repospec.Name) (bool, error) {
	_, err := e.lookupRepository(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, &RemoteQueryError{Name: name.String(), Err: err}
	}
}

// CreateAndUpload creates the repository described by spec and uploads every
// file under root. A rejected creation returns a *CreationError and nothing
// is uploaded. Per-file failures are recorded in the report.
func (e *Engine) CreateAndUpload(ctx context.Context, root string, spec *repospec.CreationSpec) (*Report, error) {
	files, err := e.scan(root)
	if err != nil {
		return nil, err
	}

	slog.Info("sync", "op", "create repository", "name", spec.Name, "visibility", spec.Visibility(), "license", spec.License, "author", spec.Author)
	repo, err := e.remote.CreateRepository(ctx, spec)
	if err != nil {
		return nil, &CreationError{Name: spec.Name.String(), Details: errorDetails(err), Err: err}
	}
	slog.Info("sync", "op", "repository created", "repo", repo.FullName(), "url", repo.URL)

	report := e.newReport(root, repo, ModeUpload)
	report.Author = spec.Author
	return e.run(ctx, report, files, func(ctx context.Context, f *LocalFile) Outcome {
		return e.uploadFile(ctx, repo, f)
	})
}

// Reconcile brings an existing repository up to date with root. Files that
// exist only remotely are left alone.
func (e *Engine) Reconcile(ctx context.Context, root string, name repospec.Name) (*Report, error) {
	files, err := e.scan(root)
	if err != nil {
		return nil, err
	}

	repo, err := e.lookupRepository(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
		}
		return nil, &RemoteQueryError{Name: name.String(), Err: err}
	}

	report := e.newReport(root, repo, ModeReconcile)
	return e.run(ctx, report, files, func(ctx context.Context, f *LocalFile) Outcome {
		return e.reconcileFile(ctx, repo, f)
	})
}

// Push creates and uploads when the repository is absent and reconciles otherwise.
// Losing a creation race to another writer falls back to reconciling.
func (e *Engine) Push(ctx context.Context, root string, spec *repospec.CreationSpec) (*Report, error) {
	exists, err := e.RepositoryExists(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return e.Reconcile(ctx, root, spec.Name)
	}

	report, err := e.CreateAndUpload(ctx, root, spec)
	if errors.Is(err, ErrRepositoryExists) {
		slog.Warn("sync", "op", "create repository", "name", spec.Name, "error", err, "fallback", ModeReconcile)
		return e.Reconcile(ctx, root, spec.Name)
	}
	return report, err
}

func (e *Engine) lookupRepository(ctx context.Context, name repospec.Name) (*RemoteRepository, error) {
	owner, err := e.remote.CurrentUser(ctx)
	if err != nil {
		// only GetRepository may report the repository as absent
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("resolve account: %v", err)
		}
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	return e.remote.GetRepository(ctx, owner, name.String())
}

func (e *Engine) scan(root string) ([]*LocalFile, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local root: %w", err)
	}

	ignore, err := NewIgnoreList(abs, e.excludes...)
	if err != nil {
		return nil, err
	}
	ignore.Load()

	return NewScanner(abs, ignore).Scan()
}

func (e *Engine) newReport(root string, repo *RemoteRepository, mode Mode) *Report {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Report{
		RunID:      uuid.NewString(),
		Repository: repo.FullName(),
		URL:        repo.URL,
		Mode:       mode,
		Root:       root,
		Started:    e.now(),
	}
}

// run processes files on a bounded pool. Outcomes keep traversal order. After
// cancellation no new file is started and the partial report is returned.
func (e *Engine) run(ctx context.Context, report *Report, files []*LocalFile, process func(context.Context, *LocalFile) Outcome) (*Report, error) {
	total := len(files)
	results := make([]*Outcome, total)

	var (
		mu   sync.Mutex
		done int
	)

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcome := process(ctx, f)
			e.log(outcome)

			mu.Lock()
			defer mu.Unlock()
			results[i] = &outcome
			done++
			if e.observer != nil {
				e.observer(done, total, outcome)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Outcomes = make([]Outcome, 0, total)
	for _, o := range results {
		if o != nil {
			report.Outcomes = append(report.Outcomes, *o)
		}
	}
	report.Finished = e.now()

	slog.Info("sync", "op", "pass finished", "mode", report.Mode, "repo", report.Repository,
		"files", len(report.Outcomes),
		"created", report.Count(ActionCreated),
		"updated", report.Count(ActionUpdated),
		"skipped", report.Count(ActionSkippedIdentical),
		"failed", report.Count(ActionFailed),
		"bytes", humanize.Bytes(uint64(report.Bytes())),
		"took", report.Duration(),
	)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("sync %s interrupted after %d of %d files: %w", report.Mode, len(report.Outcomes), total, err)
	}
	return report, nil
}

func (e *Engine) uploadFile(ctx context.Context, repo *RemoteRepository, f *LocalFile) Outcome {
	content, err := f.Read()
	if err != nil {
		return failed(f, OpRead, err)
	}

	if err := e.remote.CreateFile(ctx, repo, f.Path, addMessage(f.Path), content); err != nil {
		return failed(f, OpCreate, err)
	}
	return Outcome{Path: f.Path, Action: ActionCreated, Size: int64(len(content))}
}

func (e *Engine) reconcileFile(ctx context.Context, repo *RemoteRepository, f *LocalFile) Outcome {
	content, err := f.Read()
	if err != nil {
		return failed(f, OpRead, err)
	}
	size := int64(len(content))

	remote, err := e.remote.GetFileContent(ctx, repo, f.Path)
	if errors.Is(err, ErrNotFound) {
		if err := e.remote.CreateFile(ctx, repo, f.Path, addMessage(f.Path), content); err != nil {
			return failed(f, OpCreate, err)
		}
		return Outcome{Path: f.Path, Action: ActionCreated, Size: size}
	}
	if err != nil {
		return failed(f, OpFetch, err)
	}

	if identical(content, remote) {
		return Outcome{Path: f.Path, Action: ActionSkippedIdentical, Size: size}
	}

	if err := e.remote.UpdateFile(ctx, repo, f.Path, updateMessage(f.Path), content, remote.Version); err != nil {
		return failed(f, OpUpdate, err)
	}
	return Outcome{Path: f.Path, Action: ActionUpdated, Size: size}
}

func (e *Engine) log(o Outcome) {
	if o.Err != nil {
		slog.Error("sync", "op", o.Err.Op, "path", o.Path, "error", o.Err.Err)
		return
	}
	slog.Debug("sync", "op", o.Action, "path", o.Path, "size", humanize.Bytes(uint64(o.Size)))
}

func identical(local []byte, remote *RemoteFile) bool {
	if remote.Truncated {
		return remote.Version != "" && Fingerprint(local) == remote.Version
	}
	return bytes.Equal(local, remote.Content)
}

func failed(f *LocalFile, op FileOp, err error) Outcome {
	return Outcome{
		Path:   f.Path,
		Action: ActionFailed,
		Size:   f.Size,
		Err:    &PerFileError{Path: f.Path, Op: op, Err: err},
	}
}

func addMessage(path string) string    { return "Add " + path }
func updateMessage(path string) string { return "Update " + path }
