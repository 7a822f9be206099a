// Package sandbox runs untrusted JavaScript snippets behind an isolation
// boundary with a wall-clock deadline and captured console output.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	KindJS      = "js"
	KindProcess = "process"

	DefaultTimeout      = 3 * time.Second
	DefaultMaxOutput    = 64 * 1024
	DefaultMaxCallStack = 1024
)

// ErrTimeout is wrapped by every deadline failure.
var ErrTimeout = errors.New("execution timed out")

// FaultError reports a snippet that could not be run at all, such as one
// with a syntax error. Exceptions thrown while running are not faults: they
// are folded into the captured output.
type FaultError struct {
	Message string
}

func (e *FaultError) Error() string {
	return "execution error: " + e.Message
}

// Outcome classifies a Result for logs and metrics.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeTimeout Outcome = "timeout"
	OutcomeFault   Outcome = "fault"
)

// Result is the outcome of one run. When Err is set Output is empty.
type Result struct {
	Output string
	Err    error
}

func (r Result) Outcome() Outcome {
	switch {
	case r.Err == nil:
		return OutcomeOK
	case errors.Is(r.Err, ErrTimeout):
		return OutcomeTimeout
	default:
		return OutcomeFault
	}
}

// Response is the wire shape {output, error?}.
type Response struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

func (r Result) Response() Response {
	resp := Response{Output: r.Output}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}

func timeoutResult(d time.Duration) Result {
	return Result{Err: fmt.Errorf("%w after %s", ErrTimeout, d)}
}

// Sandbox executes one snippet per call. Implementations keep no state
// between calls and must return by the deadline.
type Sandbox interface {
	Kind() string
	Execute(ctx context.Context, source string) Result
	Close() error
}

// Config selects and tunes a sandbox.
type Config struct {
	Kind         string
	Timeout      time.Duration
	MaxOutput    int
	MaxCallStack int

	// WorkerCommand and WorkerArgs start the worker for KindProcess. The
	// default is the running executable with "sandbox-worker".
	WorkerCommand string
	WorkerArgs    []string
	WorkerEnv     []string
}

func (c Config) withDefaults() Config {
	if c.Kind == "" {
		c.Kind = KindJS
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxOutput <= 0 {
		c.MaxOutput = DefaultMaxOutput
	}
	if c.MaxCallStack <= 0 {
		c.MaxCallStack = DefaultMaxCallStack
	}
	return c
}

// New builds the sandbox named by cfg.Kind.
func New(cfg Config) (Sandbox, error) {
	cfg = cfg.withDefaults()
	switch cfg.Kind {
	case KindJS:
		return NewJS(cfg), nil
	case KindProcess:
		return NewProcess(cfg)
	default:
		return nil, fmt.Errorf("unknown sandbox kind: %s", cfg.Kind)
	}
}

// ObserveFunc receives the outcome of every run.
type ObserveFunc func(kind string, outcome Outcome, elapsed time.Duration)

type observed struct {
	Sandbox
	observe ObserveFunc
}

// WithObserver reports every Execute on sb to fn.
func WithObserver(sb Sandbox, fn ObserveFunc) Sandbox {
	if fn == nil {
		return sb
	}
	return &observed{Sandbox: sb, observe: fn}
}

func (o *observed) Execute(ctx context.Context, source string) Result {
	start := time.Now()
	res := o.Sandbox.Execute(ctx, source)
	o.observe(o.Kind(), res.Outcome(), time.Since(start))
	return res
}
