package ashlar

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/mosaicworks/stitchagent/internal/sandbox"
)

// timeNow is the package clock; tests pin it for stable report dates.
var timeNow = time.Now

// defaultStreamCapKB bounds each captured stream. Registration output
// lands verbatim in the text report, so runaway progress logging gets
// cut rather than buffered for hours.
const defaultStreamCapKB = 4096

// RunResult captures one finished subprocess invocation.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// Truncated is set when either captured stream hit the cap.
	Truncated bool
}

// Invoker executes an argv and reports how the process ended. A non-nil
// error means the process could not be run at all; a process that
// starts and exits non-zero is a normal RunResult carrying the code.
type Invoker interface {
	Invoke(ctx context.Context, argv []string) (RunResult, error)
}

// ExecInvoker runs the command through os/exec with both streams
// captured into bounded buffers. StreamCapKB overrides the per-stream
// cap; zero uses the default.
type ExecInvoker struct {
	StreamCapKB int
}

// capturedStream adapts a bounded buffer for use as a process stream:
// writes past the cap are dropped without failing the copy.
type capturedStream struct {
	buf *sandbox.BoundedBuffer
}

func (c capturedStream) Write(p []byte) (int, error) {
	if _, err := c.buf.Write(p); err != nil && !errors.Is(err, sandbox.ErrOutputLimit) {
		return 0, err
	}
	return len(p), nil
}

// Invoke runs argv[0] with argv[1:], inheriting the parent environment.
func (inv ExecInvoker) Invoke(ctx context.Context, argv []string) (RunResult, error) {
	if len(argv) == 0 {
		return RunResult{}, errors.New("empty command")
	}
	capKB := inv.StreamCapKB
	if capKB <= 0 {
		capKB = defaultStreamCapKB
	}
	start := time.Now()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout := sandbox.NewBoundedBuffer(capKB)
	stderr := sandbox.NewBoundedBuffer(capKB)
	cmd.Stdout = capturedStream{buf: stdout}
	cmd.Stderr = capturedStream{buf: stderr}

	err := cmd.Run()
	res := RunResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  time.Since(start),
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return RunResult{}, err
		}
		res.ExitCode = exitErr.ExitCode()
	}
	appendAuditLog(argv, res)
	return res, nil
}
