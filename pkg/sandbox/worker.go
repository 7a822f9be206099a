package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// workerReply is written by the worker as a single JSON document.
type workerReply struct {
	Output  string `json:"output"`
	Fault   string `json:"fault,omitempty"`
	Timeout bool   `json:"timeout,omitempty"`
}

func (r workerReply) result(timeout time.Duration) Result {
	switch {
	case r.Timeout:
		return timeoutResult(timeout)
	case r.Fault != "":
		return Result{Err: &FaultError{Message: r.Fault}}
	default:
		return Result{Output: r.Output}
	}
}

// ServeWorker reads one snippet from r, evaluates it with a JSSandbox and
// writes the reply to w.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer, cfg Config) error {
	cfg.Kind = KindJS
	source, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return fmt.Errorf("read snippet: %w", err)
	}
	res := NewJS(cfg).Execute(ctx, string(source))

	reply := workerReply{Output: res.Output}
	var fault *FaultError
	switch {
	case errors.Is(res.Err, ErrTimeout):
		reply.Timeout = true
	case errors.As(res.Err, &fault):
		reply.Fault = fault.Message
	case res.Err != nil:
		reply.Fault = res.Err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(reply)
}
