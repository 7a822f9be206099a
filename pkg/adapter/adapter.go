// Package adapter connects a terminal to a shell session, either in process
// or through the gateway's WebSocket endpoint.
package adapter

import "context"

type Adapter interface {
	Start(ctx context.Context) error
}

// Backend is the shell a Terminal talks to.
type Backend interface {
	Prompt() string
	// Transcript is shown when the terminal starts.
	Transcript() []string
	Run(line string) (Result, error)
	Complete(input string) (string, error)
}
