package runner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shinji-kodama/hgbuf/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestRun_Success verifies that stdout is captured for a zero exit.
func TestRun_Success(t *testing.T) {
	r := New("", nil)

	out, err := r.Run("echo 'M bar.txt'", false)
	require.NoError(t, err)
	assert.Equal(t, "M bar.txt\n", out.Stdout)
	assert.Equal(t, 0, out.ExitCode)
	assert.Equal(t, "echo 'M bar.txt'", out.CommandLine)
}

// TestRun_NonZeroExit verifies that an untolerated failure becomes an
// ExecutionError carrying the captured stderr.
func TestRun_NonZeroExit(t *testing.T) {
	r := New("", nil)

	out, err := r.Run(`sh -c "echo 'abort: no repository found' >&2; exit 255"`, false)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, model.ErrCommandFailed))

	var execErr *model.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 255, execErr.ExitCode)
	assert.Equal(t, "abort: no repository found", execErr.Detail)
}

// TestRun_NonZeroExitDetailFallsBackToStdout covers tools that report
// errors on stdout.
func TestRun_NonZeroExitDetailFallsBackToStdout(t *testing.T) {
	r := New("", nil)

	_, err := r.Run(`sh -c "echo broken; exit 1"`, false)
	var execErr *model.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "broken", execErr.Detail)
}

// TestRun_ToleratedNonZeroExit verifies the per-call opt-out used by diff.
func TestRun_ToleratedNonZeroExit(t *testing.T) {
	r := New("", nil)

	out, err := r.Run(`sh -c "echo '+added'; exit 1"`, true)
	require.NoError(t, err)
	assert.Equal(t, "+added\n", out.Stdout)
	assert.Equal(t, 1, out.ExitCode)
}

// TestRun_EmptyOutput verifies that a silent success is reported as
// ErrNoOutput rather than as a command failure.
func TestRun_EmptyOutput(t *testing.T) {
	r := New("", nil)

	_, err := r.Run("true", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNoOutput))
	assert.False(t, errors.Is(err, model.ErrCommandFailed))
}

// TestRun_ToleratedEmptyOutput verifies that tolerance does not hide an
// empty result.
func TestRun_ToleratedEmptyOutput(t *testing.T) {
	r := New("", nil)

	_, err := r.Run("false", true)
	assert.True(t, errors.Is(err, model.ErrNoOutput))
}

func TestRun_MissingBinary(t *testing.T) {
	r := New("", nil)

	_, err := r.Run("hgbuf-definitely-not-installed status", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrCommandFailed))

	var execErr *model.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, -1, execErr.ExitCode)
}

func TestRun_MalformedAndEmptyCommandLine(t *testing.T) {
	r := New("", nil)

	_, err := r.Run(`echo "unterminated`, false)
	assert.True(t, errors.Is(err, model.ErrCommandFailed))

	_, err = r.Run("   ", false)
	assert.True(t, errors.Is(err, model.ErrCommandFailed))
}

// TestRun_WorkingDirectory verifies that commands run inside Dir.
func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bar.txt"), []byte("x"), 0o644))

	r := New(dir, nil)
	out, err := r.Run("ls", false)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "bar.txt")
}

// TestCommandLine verifies quoting of paths with spaces survives a
// round trip through Run's word splitting.
func TestCommandLine(t *testing.T) {
	line := CommandLine("hg", "status", Quote("my file.txt"))
	assert.Equal(t, "hg status 'my file.txt'", line)

	assert.Equal(t, "hg log", CommandLine("hg", "log", ""))
	assert.Equal(t, "hg", CommandLine("hg", ""))

	r := New("", nil)
	out, err := r.Run(CommandLine("echo", "", Quote("my file.txt")), false)
	require.NoError(t, err)
	assert.Equal(t, "my file.txt\n", out.Stdout)
}
