package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sameehj/vsh/pkg/exec"
)

// workerGrace is the extra time the parent allows the worker to report its
// own timeout before the process is killed.
const workerGrace = 500 * time.Millisecond

// replyLimit bounds the worker's stdout. Control characters are escaped to
// six bytes each in the JSON reply.
func replyLimit(maxOutput int) int {
	return 6*maxOutput + 4096
}

// ProcessSandbox runs every snippet in a fresh worker process with an empty
// environment. The worker evaluates the snippet with a JSSandbox, so a crash
// or runaway allocation takes down the child and not the server.
type ProcessSandbox struct {
	cfg    Config
	runner *exec.Runner
}

func NewProcess(cfg Config) (*ProcessSandbox, error) {
	cfg = cfg.withDefaults()
	if cfg.WorkerCommand == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate worker executable: %w", err)
		}
		cfg.WorkerCommand = self
	}
	if cfg.WorkerArgs == nil {
		cfg.WorkerArgs = WorkerArgs(cfg)
	}
	return &ProcessSandbox{
		cfg: cfg,
		runner: &exec.Runner{
			Timeout:   cfg.Timeout + workerGrace,
			MaxOutput: replyLimit(cfg.MaxOutput),
			Env:       cfg.WorkerEnv,
		},
	}, nil
}

// WorkerArgs is the default argument list for the sandbox-worker command.
func WorkerArgs(cfg Config) []string {
	return []string{
		"sandbox-worker",
		"--timeout", cfg.Timeout.String(),
		"--max-output", strconv.Itoa(cfg.MaxOutput),
	}
}

func (p *ProcessSandbox) Kind() string {
	return KindProcess
}

func (p *ProcessSandbox) Close() error {
	return nil
}

func (p *ProcessSandbox) Execute(ctx context.Context, source string) Result {
	res, err := p.runner.Run(ctx, p.cfg.WorkerCommand, p.cfg.WorkerArgs, strings.NewReader(source))
	if err != nil {
		if errors.Is(err, exec.ErrTimeout) {
			return timeoutResult(p.cfg.Timeout)
		}
		return Result{Err: &FaultError{Message: err.Error()}}
	}
	if res.Code != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("worker exited with code %d", res.Code)
		}
		return Result{Err: &FaultError{Message: msg}}
	}
	var reply workerReply
	if err := json.Unmarshal([]byte(res.Stdout), &reply); err != nil {
		return Result{Err: &FaultError{Message: "malformed worker reply: " + err.Error()}}
	}
	return reply.result(p.cfg.Timeout)
}
