package main

import (
	"strings"
	"testing"

	"github.com/gitswift/gitswift/internal/history"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCommands(t *testing.T) {
	env := newTestEnv(t)

	stdout, _, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no runs recorded")

	root := writeTree(t, "demo", map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "b",
	})
	for range 2 {
		_, _, err = env.run(t, "push", root, "--token", env.srv.Token(), "--author", "Ada")
		require.NoError(t, err)
	}

	stdout, _, err = env.run(t, "history", "-o", "json")
	require.NoError(t, err)
	var runs []history.Run
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	require.Len(t, runs, 2)

	// newest first
	assert.Equal(t, "reconcile", runs[0].Mode)
	assert.Equal(t, 2, runs[0].Skipped)
	assert.Equal(t, "upload", runs[1].Mode)
	assert.Equal(t, 2, runs[1].Created)
	assert.Equal(t, "Ada", runs[1].Author)
	assert.Equal(t, "octocat/demo", runs[1].Repository)

	stdout, _, err = env.run(t, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(stdout, "octocat/demo"))

	stdout, _, err = env.run(t, "history", "show", runs[1].ID[:8])
	require.NoError(t, err)
	assert.Contains(t, stdout, "a.txt")
	assert.Contains(t, stdout, "sub/b.txt")
	assert.Contains(t, stdout, "created")

	stdout, _, err = env.run(t, "history", "show", runs[0].ID, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "id: "+runs[0].ID)
	assert.Contains(t, stdout, "action: skipped-identical")

	_, _, err = env.run(t, "history", "show", "does-not-exist")
	assert.ErrorIs(t, err, history.ErrRunNotFound)
}
