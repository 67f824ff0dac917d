package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644))
	var out bytes.Buffer
	r := &Runner{Dir: dir, Stdout: &out}

	res, err := r.Run("ls", false)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "marker\n", res.Stdout)
	assert.Equal(t, "marker\n", out.String())
}

func TestRunnerHiddenOutput(t *testing.T) {
	var out bytes.Buffer
	r := &Runner{Dir: t.TempDir(), Stdout: &out}

	res, err := r.Run("echo 0", true)
	require.NoError(t, err)
	assert.Equal(t, "0\n", res.Stdout)
	assert.Empty(t, out.String())
}

func TestRunnerNonZeroExit(t *testing.T) {
	res, err := NewRunner(t.TempDir()).Run("echo nope >&2; exit 4", true)
	require.NoError(t, err)
	assert.Equal(t, 4, res.ExitCode)
	assert.Equal(t, "nope\n", res.Stderr)
}

func TestRunnerMissingDir(t *testing.T) {
	res, err := NewRunner(filepath.Join(t.TempDir(), "gone")).Run("true", true)
	assert.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}
