package bench

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessRunner_Captured_CollectsOutput(t *testing.T) {
	runner := NewProcessRunner()
	outcome, err := runner.Run(context.Background(), Command{
		Stage:   StageBuild,
		Program: "sh",
		Args:    []string{"-c", "echo out; echo err >&2"},
		Dir:     t.TempDir(),
	}, OutputCaptured)

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, "out\n", outcome.Stdout)
	assert.Equal(t, "err\n", outcome.Stderr)
	assert.Equal(t, StageBuild, outcome.Stage)
	assert.Greater(t, outcome.Elapsed, time.Duration(0))
}

func TestProcessRunner_NonZeroExit_IsOutcomeNotError(t *testing.T) {
	runner := NewProcessRunner()
	outcome, err := runner.Run(context.Background(), Command{
		Stage:   StageCompile,
		Program: "sh",
		Args:    []string{"-c", "echo broken >&2; exit 3"},
	}, OutputCaptured)

	// The command ran and failed; that is a normal Outcome, not an error.
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, 3, outcome.ExitCode)
	assert.Equal(t, "broken\n", outcome.Stderr)
}

func TestProcessRunner_MissingBinary_ReturnsLaunchFailure(t *testing.T) {
	runner := NewProcessRunner()
	_, err := runner.Run(context.Background(), Command{
		Stage:   StageBuild,
		Program: "definitely-not-a-binary-on-path",
	}, OutputCaptured)

	assert.ErrorIs(t, err, ErrLaunchFailure)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageBuild, stageErr.Stage)
}

func TestProcessRunner_MissingWorkingDirectory_ReturnsLaunchFailure(t *testing.T) {
	runner := NewProcessRunner()
	_, err := runner.Run(context.Background(), Command{
		Stage:   StageCompile,
		Program: "true",
		Dir:     filepath.Join(t.TempDir(), "does-not-exist"),
	}, OutputCaptured)

	assert.ErrorIs(t, err, ErrLaunchFailure)
}

func TestProcessRunner_Timeout_KillsProcessAndReturnsStageTimeout(t *testing.T) {
	runner := NewProcessRunner()
	start := time.Now()
	_, err := runner.Run(context.Background(), Command{
		Stage:   StageSimulate,
		Program: "sleep",
		Args:    []string{"30"},
		Timeout: 100 * time.Millisecond,
	}, OutputCaptured)

	assert.ErrorIs(t, err, ErrStageTimeout)
	// Run must not return before the process group is reaped, and must not
	// wait anywhere near the sleep duration.
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestProcessRunner_Cancellation_TerminatesSubprocess(t *testing.T) {
	runner := NewProcessRunner()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := runner.Run(ctx, Command{
		Stage:   StageSimulate,
		Program: "sleep",
		Args:    []string{"30"},
	}, OutputCaptured)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrStageTimeout))
}

func TestProcessRunner_EnvOverlay_VisibleToCommand(t *testing.T) {
	runner := NewProcessRunner()
	outcome, err := runner.Run(context.Background(), Command{
		Stage:   StageBuild,
		Program: "sh",
		Args:    []string{"-c", "printf '%s' \"$PALLOY_TEST_VAR\""},
		Env:     map[string]string{"PALLOY_TEST_VAR": "42"},
	}, OutputCaptured)

	require.NoError(t, err)
	assert.Equal(t, "42", outcome.Stdout)
}

func TestProcessRunner_Streamed_RetainsNoOutput(t *testing.T) {
	runner := NewProcessRunner()
	outcome, err := runner.Run(context.Background(), Command{
		Stage:   StageBuild,
		Program: "sh",
		Args:    []string{"-c", "echo streamed-away"},
	}, OutputStreamed)

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.Streamed)
	assert.Empty(t, outcome.Stdout)
	assert.Empty(t, outcome.Stderr)
}
