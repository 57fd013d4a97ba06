package sync

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gitswift/gitswift/internal/ghsdk"
	"github.com/gitswift/gitswift/internal/ghsdk/ghsdktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitHubEngine(t *testing.T, srv *ghsdktest.Server, token string, opts ...Option) *Engine {
	t.Helper()
	sdk, err := ghsdk.New(&ghsdk.Config{BaseURL: srv.URL, Token: token})
	require.NoError(t, err)
	t.Cleanup(sdk.Close)
	return New(NewGitHubRemote(sdk), opts...)
}

func TestGitHubRemote_EndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := ghsdktest.NewServer()
	defer srv.Close()

	root := writeTree(t, map[string]string{"README.md": "# Hi", "src/a.txt": "x"})
	engine := newGitHubEngine(t, srv, srv.Token())

	exists, err := engine.RepositoryExists(ctx, "demo")
	require.NoError(t, err)
	assert.False(t, exists)

	report, err := engine.CreateAndUpload(ctx, root, mustSpec(t, "demo"))
	require.NoError(t, err)
	assert.Equal(t, []step{
		{"README.md", ActionCreated},
		{"src/a.txt", ActionCreated},
	}, steps(report))
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/user/repos"))
	assert.Equal(t, 2, srv.CallsByMethod(http.MethodPut))
	assert.Equal(t, "https://github.com/octocat/demo", report.URL)

	_, _, license, ok := srv.RepoInfo("demo")
	require.True(t, ok)
	assert.Equal(t, "mit", license)

	exists, err = engine.RepositoryExists(ctx, "demo")
	require.NoError(t, err)
	assert.True(t, exists)

	again, err := engine.Reconcile(ctx, root, "demo")
	require.NoError(t, err)
	for _, o := range again.Outcomes {
		assert.Equal(t, ActionSkippedIdentical, o.Action, o.Path)
	}
	assert.Equal(t, 2, srv.CallsByMethod(http.MethodPut))

	srv.PutFile("demo", "remote-only.txt", []byte("keep"))
	writeFile(t, root, "src/a.txt", "y")
	updated, err := engine.Reconcile(ctx, root, "demo")
	require.NoError(t, err)
	assert.Equal(t, []step{
		{"README.md", ActionSkippedIdentical},
		{"src/a.txt", ActionUpdated},
	}, steps(updated))

	content, ok := srv.File("demo", "src/a.txt")
	require.True(t, ok)
	assert.Equal(t, "y", string(content))
	assert.Equal(t, []string{"README.md", "remote-only.txt", "src/a.txt"}, srv.Paths("demo"))
}

func TestGitHubRemote_LargeFiles(t *testing.T) {
	ctx := context.Background()
	srv := ghsdktest.NewServer(ghsdktest.WithLargeFileThreshold(16))
	defer srv.Close()

	big := strings.Repeat("z", 64)
	srv.PutFile("demo", "big.txt", []byte(big))
	root := writeTree(t, map[string]string{"big.txt": big})

	report, err := newGitHubEngine(t, srv, srv.Token()).Reconcile(ctx, root, "demo")
	require.NoError(t, err)
	assert.Equal(t, []step{{"big.txt", ActionSkippedIdentical}}, steps(report))
	assert.Zero(t, srv.CallsByMethod(http.MethodPut))
}

func TestGitHubRemote_ErrorMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("bad token is an authentication error", func(t *testing.T) {
		srv := ghsdktest.NewServer()
		defer srv.Close()

		_, err := newGitHubEngine(t, srv, "ghp_wrong").RepositoryExists(ctx, "demo")
		var queryErr *RemoteQueryError
		require.ErrorAs(t, err, &queryErr)
		assert.ErrorIs(t, err, ErrAuthentication)
		assert.ErrorIs(t, err, ghsdk.ErrUnauthorized)
	})

	t.Run("read only token is an authorization error with scope hint", func(t *testing.T) {
		srv := ghsdktest.NewServer(ghsdktest.WithReadOnlyToken())
		defer srv.Close()
		root := writeTree(t, map[string]string{"a.txt": "a"})

		_, err := newGitHubEngine(t, srv, srv.Token()).CreateAndUpload(ctx, root, mustSpec(t, "demo"))
		var creationErr *CreationError
		require.ErrorAs(t, err, &creationErr)
		assert.ErrorIs(t, err, ErrAuthorization)
		assert.Contains(t, err.Error(), "token scopes: read:user; accepted scopes: repo")
	})

	t.Run("name collision", func(t *testing.T) {
		srv := ghsdktest.NewServer()
		defer srv.Close()
		srv.AddRepo("demo")
		root := writeTree(t, map[string]string{"a.txt": "a"})

		_, err := newGitHubEngine(t, srv, srv.Token()).CreateAndUpload(ctx, root, mustSpec(t, "demo"))
		var creationErr *CreationError
		require.ErrorAs(t, err, &creationErr)
		assert.ErrorIs(t, err, ErrRepositoryExists)
		assert.Equal(t, []string{"name already exists on this account"}, creationErr.Details)
	})

	t.Run("rate limit on fetch is a per file failure", func(t *testing.T) {
		srv := ghsdktest.NewServer()
		defer srv.Close()
		srv.AddRepo("demo")
		srv.Fail(http.MethodGet, "/repos/octocat/demo/contents/a.txt", http.StatusTooManyRequests, "API rate limit exceeded")
		root := writeTree(t, map[string]string{"a.txt": "a", "b.txt": "b"})

		report, err := newGitHubEngine(t, srv, srv.Token()).Reconcile(ctx, root, "demo")
		require.NoError(t, err)
		assert.Equal(t, []step{
			{"a.txt", ActionFailed},
			{"b.txt", ActionCreated},
		}, steps(report))
		assert.ErrorIs(t, report.Outcomes[0].Err, ghsdk.ErrRateLimited)
		assert.Equal(t, OpFetch, report.Outcomes[0].Err.Op)
	})

	t.Run("conflict on update is a stale version", func(t *testing.T) {
		srv := ghsdktest.NewServer()
		defer srv.Close()
		srv.PutFile("demo", "a.txt", []byte("old"))
		srv.Fail(http.MethodPut, "/repos/octocat/demo/contents/a.txt", http.StatusConflict, "a.txt does not match")
		root := writeTree(t, map[string]string{"a.txt": "new"})

		report, err := newGitHubEngine(t, srv, srv.Token()).Reconcile(ctx, root, "demo")
		require.NoError(t, err)
		require.Len(t, report.Outcomes, 1)
		assert.ErrorIs(t, report.Outcomes[0].Err, ErrStaleVersion)
	})
}

func TestScopeHint(t *testing.T) {
	tests := []struct {
		name string
		err  ghsdk.APIError
		want string
	}{
		{"both", ghsdk.APIError{TokenScopes: "read:user", AcceptedScopes: "repo"}, "token scopes: read:user; accepted scopes: repo"},
		{"accepted only", ghsdk.APIError{AcceptedScopes: "repo"}, "accepted scopes: repo"},
		{"token only", ghsdk.APIError{TokenScopes: "gist"}, "token scopes: gist"},
		{"none", ghsdk.APIError{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scopeHint(&tt.err))
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(rel)), []byte(content), 0o644))
}
