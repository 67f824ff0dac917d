package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitInSync(t *testing.T) {
	local := inSyncGit()

	ok, err := NewGitService(local).InSync("origin", "master")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"git rev-parse HEAD", "git rev-parse origin/master"}, local.commands)
	assert.True(t, local.hidden["git rev-parse HEAD"])
}

func TestGitOutOfSync(t *testing.T) {
	ok, err := NewGitService(outOfSyncGit()).InSync("origin", "master")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGitComparesRawOutput(t *testing.T) {
	local := newFakeConn(
		stdout("git rev-parse HEAD", "3f2a9c1\n"),
		stdout("git rev-parse origin/master", "3f2a9c1"),
	)
	ok, err := NewGitService(local).InSync("origin", "master")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGitRevParseFailure(t *testing.T) {
	local := newFakeConn(exitCode("git rev-parse HEAD", 128, "fatal: not a git repository"))
	_, err := NewGitService(local).InSync("origin", "master")
	assert.Error(t, err)
	assert.Len(t, local.commands, 1)
}
