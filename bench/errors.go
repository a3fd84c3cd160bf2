package bench

import (
	"errors"
	"fmt"
)

// Sentinel errors for the workflow pipeline. Callers match them with
// errors.Is; StageError carries the stage context on the way up.
var (
	// ErrConfigNotFound signals an absent parameter file. Load returns it so
	// callers can fall back to defaults; the workflow treats it as benign.
	ErrConfigNotFound = errors.New("parameter file not found")
	// ErrConfigParse signals a present but malformed parameter file.
	ErrConfigParse = errors.New("parameter file malformed")
	// ErrInvalidParameter signals a value that fails its type or range check.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrBaselineMissing signals an absent baseline architecture document.
	ErrBaselineMissing = errors.New("baseline document missing")
	// ErrPatchConflict signals a baseline lacking a field the patch must attach to.
	ErrPatchConflict = errors.New("patch field absent from baseline")
	// ErrWrite signals an I/O failure writing a derived document or result file.
	ErrWrite = errors.New("write failed")
	// ErrLaunchFailure signals a command that could not be started at all,
	// as opposed to one that ran and exited non-zero.
	ErrLaunchFailure = errors.New("command launch failed")
	// ErrStageTimeout signals a stage deadline expiry. The process group has
	// been killed by the time this is returned.
	ErrStageTimeout = errors.New("stage timed out")
)

// StageError wraps a failure with the name of the pipeline stage it occurred
// in, so a caller can diagnose a run without re-executing it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
