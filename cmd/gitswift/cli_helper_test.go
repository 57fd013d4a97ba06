package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/gitswift/gitswift/internal/ghsdk/ghsdktest"
	"github.com/stretchr/testify/require"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegexp.ReplaceAllString(s, "")
}

// runCLI executes one in-process invocation and returns its captured output.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	err = execute(context.Background(), args, &out, &errOut)
	return stripANSI(out.String()), stripANSI(errOut.String()), err
}

type testEnv struct {
	srv     *ghsdktest.Server
	dataDir string
}

func newTestEnv(t *testing.T, opts ...ghsdktest.Option) *testEnv {
	t.Helper()

	// keep the host environment out of token resolution
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITSWIFT_TOKEN", "")

	srv := ghsdktest.NewServer(opts...)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, dataDir: t.TempDir()}
}

// args appends the flags pointing an invocation at the fake server and a scratch data dir.
func (e *testEnv) args(args ...string) []string {
	return append(args,
		"--config", filepath.Join(e.dataDir, "config.json"),
		"--data-dir", e.dataDir,
		"--server", e.srv.URL,
	)
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, e.args(args...)...)
}

// writeTree creates files under a new directory named name.
func writeTree(t *testing.T, name string, files map[string]string) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), name)
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(root, 0o755))
	return root
}
