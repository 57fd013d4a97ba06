package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gitswift/gitswift/internal/repospec"
	"github.com/stretchr/testify/require"
)

// fakeRemote keeps repositories in memory and counts calls.
type fakeRemote struct {
	mu    sync.Mutex
	login string
	repos map[string]map[string][]byte

	userErr       error
	getRepoErr    error
	createRepoErr error
	fetchErr      map[string]error
	createErr     map[string]error
	updateErr     map[string]error
	truncateAbove int

	createRepoCalls int
	fetchCalls      int
	createCalls     map[string]int
	updateCalls     map[string]int
	messages        []string
	lastSpec        *repospec.CreationSpec
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		login:       "octocat",
		repos:       make(map[string]map[string][]byte),
		fetchErr:    make(map[string]error),
		createErr:   make(map[string]error),
		updateErr:   make(map[string]error),
		createCalls: make(map[string]int),
		updateCalls: make(map[string]int),
	}
}

func (f *fakeRemote) seed(repo string, files map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.repos[repo]
	if !ok {
		r = make(map[string][]byte)
		f.repos[repo] = r
	}
	for p, c := range files {
		r[p] = []byte(c)
	}
}

func (f *fakeRemote) file(repo, path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.repos[repo][path]
	return string(c), ok
}

func (f *fakeRemote) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.createCalls {
		n += c
	}
	for _, c := range f.updateCalls {
		n += c
	}
	return n
}

func (f *fakeRemote) CurrentUser(ctx context.Context) (string, error) {
	if f.userErr != nil {
		return "", f.userErr
	}
	return f.login, nil
}

func (f *fakeRemote) GetRepository(ctx context.Context, owner, name string) (*RemoteRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getRepoErr != nil {
		return nil, f.getRepoErr
	}
	if _, ok := f.repos[name]; !ok || owner != f.login {
		return nil, fmt.Errorf("get repository: %w", ErrNotFound)
	}
	return f.handle(name), nil
}

func (f *fakeRemote) CreateRepository(ctx context.Context, spec *repospec.CreationSpec) (*RemoteRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createRepoCalls++
	f.lastSpec = spec
	if f.createRepoErr != nil {
		return nil, f.createRepoErr
	}
	name := spec.Name.String()
	if _, ok := f.repos[name]; ok {
		return nil, fmt.Errorf("create repository: %w", ErrRepositoryExists)
	}
	f.repos[name] = make(map[string][]byte)
	return f.handle(name), nil
}

func (f *fakeRemote) GetFileContent(ctx context.Context, repo *RemoteRepository, path string) (*RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if err := f.fetchErr[path]; err != nil {
		return nil, err
	}
	c, ok := f.repos[repo.Name][path]
	if !ok {
		return nil, fmt.Errorf("get contents: %w", ErrNotFound)
	}
	file := &RemoteFile{Content: append([]byte(nil), c...), Version: Fingerprint(c)}
	if f.truncateAbove > 0 && len(c) > f.truncateAbove {
		file.Content = nil
		file.Truncated = true
	}
	return file, nil
}

func (f *fakeRemote) CreateFile(ctx context.Context, repo *RemoteRepository, path, message string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls[path]++
	f.messages = append(f.messages, message)
	if err := f.createErr[path]; err != nil {
		return err
	}
	if _, ok := f.repos[repo.Name][path]; ok {
		return fmt.Errorf("create %s: file exists", path)
	}
	f.repos[repo.Name][path] = append([]byte(nil), content...)
	return nil
}

func (f *fakeRemote) UpdateFile(ctx context.Context, repo *RemoteRepository, path, message string, content []byte, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls[path]++
	f.messages = append(f.messages, message)
	if err := f.updateErr[path]; err != nil {
		return err
	}
	current, ok := f.repos[repo.Name][path]
	if !ok {
		return fmt.Errorf("update %s: %w", path, ErrNotFound)
	}
	if Fingerprint(current) != version {
		return fmt.Errorf("update %s: %w", path, ErrStaleVersion)
	}
	f.repos[repo.Name][path] = append([]byte(nil), content...)
	return nil
}

func (f *fakeRemote) handle(name string) *RemoteRepository {
	return &RemoteRepository{Owner: f.login, Name: name, URL: "https://github.com/" + f.login + "/" + name}
}

// writeTree creates files under a fresh temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func mustSpec(t *testing.T, name string) *repospec.CreationSpec {
	t.Helper()
	spec, err := repospec.NewCreationSpec(repospec.SpecInput{Name: name, Description: "test repo", License: "MIT"})
	require.NoError(t, err)
	return spec
}

type step struct {
	Path   string
	Action Action
}

func steps(r *Report) []step {
	out := make([]step, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, step{o.Path, o.Action})
	}
	return out
}
