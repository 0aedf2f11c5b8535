package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single ffmpeg/ffprobe invocation. A hung tool is
// killed well before the per-user operation lock expires.
const DefaultTimeout = 120 * time.Second

// suffixToFormat maps container suffixes whose ffmpeg format name differs
// from the bare extension. Everything else uses the extension itself.
var suffixToFormat = map[string]string{
	".m4a": "adts",
}

// tempFileSuffixes lists containers ffmpeg cannot demux from a pipe; their
// input goes through a short-lived temporary file instead of stdin.
var tempFileSuffixes = map[string]bool{
	".m4a": true,
	".mp4": true,
}

// OutputFormat returns the ffmpeg stream format for a container suffix.
// Needed because output goes to a pipe and ffmpeg cannot infer the format
// from a filename.
func OutputFormat(suffix string) string {
	if f, ok := suffixToFormat[suffix]; ok {
		return f
	}
	return strings.TrimPrefix(suffix, ".")
}

// Runner invokes ffmpeg and ffprobe as one process per call, feeding input
// through a pipe or a temp file and always reading output back from stdout.
type Runner struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRunner creates a Runner. Empty paths default to "ffmpeg" and "ffprobe"
// resolved via PATH.
func NewRunner(ffmpegPath, ffprobePath string, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     DefaultTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CheckBinaries verifies both tools are present. Called once at startup;
// a missing binary is a fatal configuration error.
func (r *Runner) CheckBinaries() error {
	for _, bin := range []string{r.ffmpegPath, r.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %q", ErrExecutableNotFound, bin)
		}
	}
	return nil
}

// RunFFmpeg executes ffmpeg over the given source bytes and returns stdout.
// The input strategy depends on the container: most formats are piped in,
// but .m4a/.mp4 are written to a temp file that is removed on every exit
// path. A non-zero exit that still produced output is tolerated, since
// ffmpeg sometimes warns while emitting valid bytes.
func (r *Runner) RunFFmpeg(ctx context.Context, input []byte, suffix string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	inputSource := "pipe:0"
	var stdin io.Reader = bytes.NewReader(input)

	if tempFileSuffixes[suffix] {
		f, err := os.CreateTemp("", "soundhound-*"+suffix)
		if err != nil {
			return nil, fmt.Errorf("create temp input: %w", err)
		}
		name := f.Name()
		defer func() { _ = os.Remove(name) }()

		if _, err := f.Write(input); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write temp input: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close temp input: %w", err)
		}
		inputSource = name
		stdin = nil
	}

	full := append([]string{"-hide_banner", "-y", "-i", inputSource}, args...)
	full = append(full, "pipe:1")

	return r.run(ctx, r.ffmpegPath, stdin, full)
}

// RunFFprobe executes ffprobe over the source bytes, always via a pipe.
func (r *Runner) RunFFprobe(ctx context.Context, input []byte, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	full := append([]string{"-v", "error"}, args...)
	full = append(full, "-")

	return r.run(ctx, r.ffprobePath, bytes.NewReader(input), full)
}

func (r *Runner) run(ctx context.Context, bin string, stdin io.Reader, args []string) ([]byte, error) {
	// #nosec G204 - binary path is set by the application, not user input
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("run subprocess",
		slog.String("bin", bin),
		slog.Any("args", args),
	)

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ProcessError{Cmd: bin, Args: args, Stderr: stderr.String(), Err: ctx.Err()}
		}
		if stdout.Len() == 0 {
			return nil, &ProcessError{Cmd: bin, Args: args, Stderr: stderr.String(), Err: err}
		}
		// Non-zero exit but usable output: warn and keep the bytes.
		r.logger.Warn("subprocess exited non-zero with output",
			slog.String("bin", bin),
			slog.String("error", err.Error()),
		)
	}

	if stdout.Len() == 0 {
		return nil, &ProcessError{Cmd: bin, Args: args, Stderr: stderr.String(), Err: ErrEmptyOutput}
	}

	return stdout.Bytes(), nil
}
