package media

import (
	"errors"
	"fmt"
)

// Static errors for pipeline operations.
var (
	// ErrEmptyOutput is returned when a subprocess produced no bytes.
	ErrEmptyOutput = errors.New("subprocess returned zero output")
	// ErrNotImplemented is returned for action/container combinations the
	// pipeline intentionally does not support. Its message is shown to the
	// user verbatim.
	ErrNotImplemented = errors.New("embedding cover art is not supported for this type of file. Try the thumbnail action instead")
	// ErrExecutableNotFound is returned at startup when ffmpeg or ffprobe
	// is missing from the system.
	ErrExecutableNotFound = errors.New("executable not found")
	// ErrBadProbeOutput is returned when ffprobe output cannot be parsed.
	ErrBadProbeOutput = errors.New("unable to parse ffprobe output")
)

// ProcessError represents a failed external-process invocation, including
// the command, its arguments and the captured stderr for diagnostics.
type ProcessError struct {
	Cmd    string
	Args   []string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s failed: %v\nargs: %v\nstderr: %s", e.Cmd, e.Err, e.Args, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
