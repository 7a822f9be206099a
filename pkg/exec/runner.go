// Package exec runs helper processes with a deadline, an output cap and a
// controlled environment.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// ErrTimeout is wrapped when a process is killed at its deadline.
var ErrTimeout = errors.New("process timed out")

// OutputTruncatedError is returned alongside a Result whose output was cut
// at MaxOutput bytes.
type OutputTruncatedError struct {
	Limit int
}

func (e OutputTruncatedError) Error() string {
	return fmt.Sprintf("output truncated at %d bytes", e.Limit)
}

type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Runner starts one process per Run. A nil Env runs the child with an empty
// environment rather than inheriting the caller's.
type Runner struct {
	Timeout   time.Duration
	MaxOutput int
	Env       []string
	// WaitDelay bounds how long Run waits for pipes after the child is killed.
	WaitDelay time.Duration
}

func (r *Runner) Run(ctx context.Context, cmd string, args []string, stdin io.Reader) (*Result, error) {
	if cmd == "" {
		return nil, errors.New("command is required")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	command := exec.CommandContext(ctx, cmd, args...)
	command.Env = append([]string{}, r.Env...)
	command.Stdin = stdin
	command.WaitDelay = r.WaitDelay
	if command.WaitDelay <= 0 {
		command.WaitDelay = time.Second
	}
	isolate(command)

	stdoutBuf := &limitedBuffer{limit: r.MaxOutput}
	stderrBuf := &limitedBuffer{limit: r.MaxOutput}
	command.Stdout = stdoutBuf
	command.Stderr = stderrBuf

	err := command.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, cmd)
		}
		return nil, ctxErr
	}
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		exitCode = exitErr.ExitCode()
	}

	res := &Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String(), Code: exitCode}
	if stdoutBuf.truncated || stderrBuf.truncated {
		return res, OutputTruncatedError{Limit: r.MaxOutput}
	}
	return res, nil
}

type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.limit <= 0 {
		return l.buf.Write(p)
	}
	remaining := l.limit - l.buf.Len()
	if remaining <= 0 {
		l.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated = true
		_, _ = l.buf.Write(p[:remaining])
		return len(p), nil
	}
	return l.buf.Write(p)
}

func (l *limitedBuffer) String() string {
	return l.buf.String()
}

var _ io.Writer = (*limitedBuffer)(nil)
