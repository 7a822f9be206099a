package sandbox

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workerEnv = "VSH_SANDBOX_TEST_WORKER"

// TestMain lets the test binary double as the sandbox worker.
func TestMain(m *testing.M) {
	if os.Getenv(workerEnv) == "1" {
		timeout, _ := time.ParseDuration(os.Getenv("VSH_SANDBOX_TIMEOUT"))
		if err := ServeWorker(context.Background(), os.Stdin, os.Stdout, Config{Timeout: timeout}); err != nil {
			os.Exit(2)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func newJS(timeout time.Duration) *JSSandbox {
	return NewJS(Config{Timeout: timeout})
}

func TestJSConsoleLog(t *testing.T) {
	res := newJS(time.Second).Execute(context.Background(), "console.log(1 + 1)")
	require.NoError(t, res.Err)
	assert.Equal(t, "2", res.Output)
	assert.Equal(t, OutcomeOK, res.Outcome())
}

func TestJSConsoleJoinsArgumentsAndLines(t *testing.T) {
	src := `console.log("a", 1, true); console.error("b"); console.log([1,2], null, undefined)`
	res := newJS(time.Second).Execute(context.Background(), src)
	require.NoError(t, res.Err)
	assert.Equal(t, "a 1 true\nb\n1,2 null undefined", res.Output)
}

func TestJSNoOutput(t *testing.T) {
	res := newJS(time.Second).Execute(context.Background(), "var x = 1;")
	require.NoError(t, res.Err)
	assert.Empty(t, res.Output)
}

func TestJSThrownErrorIsCaptured(t *testing.T) {
	res := newJS(time.Second).Execute(context.Background(), "console.log('before'); throw new Error('x')")
	require.NoError(t, res.Err)
	assert.Equal(t, "before\nError: x", res.Output)

	res = newJS(time.Second).Execute(context.Background(), "throw 'plain'")
	require.NoError(t, res.Err)
	assert.Equal(t, "Error: plain", res.Output)
}

func TestJSInfiniteLoopTimesOut(t *testing.T) {
	start := time.Now()
	res := newJS(200*time.Millisecond).Execute(context.Background(), "console.log('partial'); while(true){}")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, res.Err, ErrTimeout)
	assert.Empty(t, res.Output)
	assert.Equal(t, OutcomeTimeout, res.Outcome())
	assert.NotEmpty(t, res.Response().Error)
}

func TestJSBacktrackingRegexpMeetsDeadline(t *testing.T) {
	sb := newJS(300 * time.Millisecond)
	start := time.Now()
	res := sb.Execute(context.Background(), "console.log('start'); console.log(/^(a+)+(?=b)$/.test('a'.repeat(32) + 'c'))")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, res.Err, ErrTimeout)
	assert.Empty(t, res.Output)
}

func TestJSSyntaxErrorIsFault(t *testing.T) {
	res := newJS(time.Second).Execute(context.Background(), "function (")
	var fault *FaultError
	require.True(t, errors.As(res.Err, &fault), "got %v", res.Err)
	assert.Empty(t, res.Output)
	assert.Equal(t, OutcomeFault, res.Outcome())
}

func TestJSHasNoHostAccess(t *testing.T) {
	for _, src := range []string{
		"require('fs')",
		"process.exit(1)",
		"setTimeout(function(){}, 1)",
	} {
		res := newJS(time.Second).Execute(context.Background(), src)
		require.NoError(t, res.Err, src)
		assert.True(t, strings.HasPrefix(res.Output, "Error: "), "%s: %q", src, res.Output)
	}
	res := newJS(time.Second).Execute(context.Background(), "console.log(typeof require, typeof process)")
	assert.Equal(t, "undefined undefined", res.Output)
}

func TestJSRunsAreIsolated(t *testing.T) {
	sb := newJS(time.Second)
	require.NoError(t, sb.Execute(context.Background(), "var leaked = 42; globalThis.other = 1").Err)
	res := sb.Execute(context.Background(), "console.log(typeof leaked, typeof other)")
	assert.Equal(t, "undefined undefined", res.Output)
}

func TestJSOutputLimit(t *testing.T) {
	sb := NewJS(Config{Timeout: 2 * time.Second, MaxOutput: 32})
	res := sb.Execute(context.Background(), "while(true){ console.log('0123456789') }")
	require.NoError(t, res.Err)
	lines := strings.Split(res.Output, "\n")
	assert.Equal(t, "[output truncated]", lines[len(lines)-1])
	assert.LessOrEqual(t, len(lines), 4)
}

func TestJSDeepRecursionIsCaptured(t *testing.T) {
	res := newJS(2*time.Second).Execute(context.Background(), "function f(){ return f() } f()")
	require.NoError(t, res.Err)
	assert.True(t, strings.HasPrefix(res.Output, "Error: "), res.Output)
}

func TestJSCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := newJS(time.Second).Execute(ctx, "while(true){}")
	var fault *FaultError
	assert.True(t, errors.As(res.Err, &fault))
}

func TestNewSelectsKind(t *testing.T) {
	sb, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, KindJS, sb.Kind())

	_, err = New(Config{Kind: "lua"})
	assert.Error(t, err)
}

func TestWithObserver(t *testing.T) {
	var got []Outcome
	sb := WithObserver(newJS(100*time.Millisecond), func(kind string, outcome Outcome, _ time.Duration) {
		assert.Equal(t, KindJS, kind)
		got = append(got, outcome)
	})
	sb.Execute(context.Background(), "1")
	sb.Execute(context.Background(), "for(;;){}")
	sb.Execute(context.Background(), "{")
	assert.Equal(t, []Outcome{OutcomeOK, OutcomeTimeout, OutcomeFault}, got)
}

func newProcess(t *testing.T, timeout time.Duration) *ProcessSandbox {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process sandbox test re-executes the test binary")
	}
	sb, err := NewProcess(Config{
		Timeout:       timeout,
		WorkerCommand: os.Args[0],
		WorkerArgs:    []string{},
		WorkerEnv:     []string{workerEnv + "=1", "VSH_SANDBOX_TIMEOUT=" + timeout.String()},
	})
	require.NoError(t, err)
	return sb
}

func TestProcessSandbox(t *testing.T) {
	sb := newProcess(t, 2*time.Second)
	assert.Equal(t, KindProcess, sb.Kind())

	res := sb.Execute(context.Background(), "console.log(1 + 1)")
	require.NoError(t, res.Err)
	assert.Equal(t, "2", res.Output)

	res = sb.Execute(context.Background(), "throw new Error('x')")
	require.NoError(t, res.Err)
	assert.Equal(t, "Error: x", res.Output)

	res = sb.Execute(context.Background(), "console.log(")
	var fault *FaultError
	assert.True(t, errors.As(res.Err, &fault))
}

func TestProcessSandboxMatchesJSOutput(t *testing.T) {
	proc := newProcess(t, 2*time.Second)
	js := newJS(2 * time.Second)
	for _, src := range []string{
		"console.log('<'.repeat(30000))",
		"console.log('\\u0001'.repeat(30000))",
		"console.log('a & b', '\u00e9')",
	} {
		want := js.Execute(context.Background(), src)
		require.NoError(t, want.Err, src)
		got := proc.Execute(context.Background(), src)
		require.NoError(t, got.Err, src)
		assert.Equal(t, want.Output, got.Output, src)
	}
}

func TestProcessSandboxTimeout(t *testing.T) {
	sb := newProcess(t, 300*time.Millisecond)
	res := sb.Execute(context.Background(), "while(true){}")
	assert.ErrorIs(t, res.Err, ErrTimeout)
	assert.Empty(t, res.Output)
}

func TestProcessSandboxKillsHungWorker(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses sh")
	}
	sb, err := NewProcess(Config{
		Timeout:       100 * time.Millisecond,
		WorkerCommand: "sh",
		WorkerArgs:    []string{"-c", "sleep 5"},
	})
	require.NoError(t, err)
	start := time.Now()
	res := sb.Execute(context.Background(), "1")
	assert.ErrorIs(t, res.Err, ErrTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}
