package bench

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// OutputMode selects how a subprocess's output is handled.
type OutputMode int

const (
	// OutputCaptured buffers stdout/stderr into the Outcome.
	OutputCaptured OutputMode = iota
	// OutputStreamed forwards stdout/stderr to this process's own streams in
	// real time and retains nothing. Used in debug mode, trading
	// observability of the Outcome for live visibility of long builds.
	OutputStreamed
)

// Command is a typed descriptor of one external invocation: program and
// argument vector, never an interpolated shell string.
type Command struct {
	Stage   string            // pipeline stage this command belongs to
	Program string            // executable to run
	Args    []string          // argument vector, excluding the program itself
	Dir     string            // working directory
	Env     map[string]string // overlay on the parent environment
	Timeout time.Duration     // per-invocation deadline; 0 means none
}

// Outcome is the result of one external invocation. A non-zero exit is a
// normal Outcome with Success=false, not an error; only launch
// impossibility and deadline expiry surface as errors.
type Outcome struct {
	Stage    string
	Success  bool
	ExitCode int
	Stdout   string // empty when streamed
	Stderr   string // empty when streamed
	Streamed bool
	Elapsed  time.Duration
}

// Runner executes external commands. The interface exists so orchestrator
// tests can substitute a fake for the real subprocess runner.
type Runner interface {
	Run(ctx context.Context, cmd Command, mode OutputMode) (Outcome, error)
}

// ProcessRunner runs commands as real subprocesses.
//
// Each command is placed in its own process group so that a timeout or
// cancellation kills the whole tree (make spawns children), never leaving
// an orphaned simulator behind.
type ProcessRunner struct{}

// NewProcessRunner creates a ProcessRunner.
func NewProcessRunner() *ProcessRunner { return &ProcessRunner{} }

// Run executes the command and waits for it to terminate.
//
// Errors are reserved for invocation failures: ErrLaunchFailure when the
// command cannot be started (missing binary, missing working directory),
// ErrStageTimeout when the deadline expires, and the context error when
// the caller cancels. In the latter two cases the process group has been
// killed and reaped before Run returns.
func (r *ProcessRunner) Run(ctx context.Context, cmd Command, mode OutputMode) (Outcome, error) {
	outcome := Outcome{Stage: cmd.Stage, Streamed: mode == OutputStreamed}

	if cmd.Dir != "" {
		if info, err := os.Stat(cmd.Dir); err != nil || !info.IsDir() {
			return outcome, &StageError{Stage: cmd.Stage,
				Err: fmt.Errorf("%w: working directory %s does not exist", ErrLaunchFailure, cmd.Dir)}
		}
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	proc := exec.Command(cmd.Program, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Env = overlayEnv(cmd.Env)
	proc.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	if mode == OutputStreamed {
		proc.Stdout = os.Stdout
		proc.Stderr = os.Stderr
	} else {
		proc.Stdout = &stdout
		proc.Stderr = &stderr
	}

	logrus.Debugf("Running %s %v (dir=%s)", cmd.Program, cmd.Args, cmd.Dir)
	start := time.Now()
	if err := proc.Start(); err != nil {
		return outcome, &StageError{Stage: cmd.Stage,
			Err: fmt.Errorf("%w: %s: %v", ErrLaunchFailure, cmd.Program, err)}
	}

	done := make(chan error, 1)
	go func() {
		done <- proc.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		// Kill the whole process group, then wait for the process to be
		// reaped so no stage ever overlaps a lingering subprocess.
		syscall.Kill(-proc.Process.Pid, syscall.SIGKILL)
		<-done
		outcome.Elapsed = time.Since(start)
		if ctx.Err() == context.DeadlineExceeded {
			return outcome, &StageError{Stage: cmd.Stage,
				Err: fmt.Errorf("%w: %s exceeded %s", ErrStageTimeout, cmd.Program, cmd.Timeout)}
		}
		return outcome, &StageError{Stage: cmd.Stage, Err: ctx.Err()}
	case waitErr = <-done:
	}

	outcome.Elapsed = time.Since(start)
	outcome.Stdout = stdout.String()
	outcome.Stderr = stderr.String()

	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return outcome, &StageError{Stage: cmd.Stage,
				Err: fmt.Errorf("%w: %s: %v", ErrLaunchFailure, cmd.Program, waitErr)}
		}
		outcome.ExitCode = exitErr.ExitCode()
		return outcome, nil
	}
	outcome.Success = true
	return outcome, nil
}

// overlayEnv layers the command's variables over the parent environment.
// The external build tools need the ambient toolchain environment, so this
// is an overlay, not an allowlist.
func overlayEnv(env map[string]string) []string {
	if len(env) == 0 {
		return os.Environ()
	}
	merged := os.Environ()
	for key, value := range env {
		merged = append(merged, fmt.Sprintf("%s=%s", key, value))
	}
	return merged
}
