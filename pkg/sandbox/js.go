package sandbox

import (
	"context"
	"errors"
	"strings"

	"github.com/dop251/goja"
)

var errOutputLimit = errors.New("output limit reached")

// JSSandbox evaluates snippets in a fresh goja runtime per call. The runtime
// exposes only the ECMAScript built-ins and a console object: there is no
// require, no filesystem, no network and no process object.
//
// Execute returns by the deadline even when the runtime is stuck in native
// code; such a run keeps its goroutine until the native call returns.
type JSSandbox struct {
	cfg Config
}

func NewJS(cfg Config) *JSSandbox {
	return &JSSandbox{cfg: cfg.withDefaults()}
}

func (s *JSSandbox) Kind() string {
	return KindJS
}

func (s *JSSandbox) Close() error {
	return nil
}

func (s *JSSandbox) Execute(ctx context.Context, source string) Result {
	program, err := goja.Compile("snippet.js", source, false)
	if err != nil {
		return Result{Err: &FaultError{Message: err.Error()}}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	vm := goja.New()
	vm.SetMaxCallStackSize(s.cfg.MaxCallStack)
	out := newCapture(s.cfg.MaxOutput)
	if err := installConsole(vm, out); err != nil {
		return Result{Err: &FaultError{Message: err.Error()}}
	}

	finished := make(chan error, 1)
	go func() {
		_, err := vm.RunProgram(program)
		finished <- err
	}()

	full := out.full
	for {
		select {
		case err := <-finished:
			return s.result(ctx, out, err)
		case <-full:
			vm.Interrupt(errOutputLimit)
			full = nil
		case <-ctx.Done():
			// Native work such as regexp backtracking does not observe the
			// interrupt. The run is abandoned and its output dropped.
			vm.Interrupt(ctx.Err())
			return s.stopped(ctx)
		}
	}
}

func (s *JSSandbox) result(ctx context.Context, out *capture, err error) Result {
	if err == nil {
		return Result{Output: out.String()}
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if interrupted.Value() == errOutputLimit {
			return Result{Output: out.String()}
		}
		return s.stopped(ctx)
	}
	out.line("Error: " + exceptionMessage(err))
	return Result{Output: out.String()}
}

func (s *JSSandbox) stopped(ctx context.Context) Result {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeoutResult(s.cfg.Timeout)
	}
	return Result{Err: &FaultError{Message: "execution canceled"}}
}

func installConsole(vm *goja.Runtime, out *capture) error {
	write := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		out.line(strings.Join(parts, " "))
		return goja.Undefined()
	}
	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, write); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

// exceptionMessage prefers the thrown value's message property, the way
// `catch (e) { e.message }` would.
func exceptionMessage(err error) string {
	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return err.Error()
	}
	val := exc.Value()
	if obj, ok := val.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	if val != nil {
		return val.String()
	}
	return exc.Error()
}

// capture collects console lines up to limit bytes.
type capture struct {
	limit     int
	size      int
	lines     []string
	truncated bool
	full      chan struct{}
}

func newCapture(limit int) *capture {
	return &capture{limit: limit, full: make(chan struct{})}
}

func (c *capture) line(s string) {
	if c.truncated {
		return
	}
	if c.limit > 0 && c.size+len(s) > c.limit {
		c.truncated = true
		c.lines = append(c.lines, "[output truncated]")
		close(c.full)
		return
	}
	c.size += len(s) + 1
	c.lines = append(c.lines, s)
}

func (c *capture) String() string {
	return strings.Join(c.lines, "\n")
}
