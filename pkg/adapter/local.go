package adapter

import "github.com/sameehj/vsh/pkg/shell"

// LocalBackend runs commands against an in-process session.
type LocalBackend struct {
	session *shell.Session
}

func NewLocalBackend(s *shell.Session) *LocalBackend {
	return &LocalBackend{session: s}
}

func (b *LocalBackend) Prompt() string {
	return b.session.Prompt()
}

func (b *LocalBackend) Transcript() []string {
	return b.session.History()
}

func (b *LocalBackend) Run(line string) (Result, error) {
	res := b.session.Run(line)
	return Result{Lines: res.Lines, Prompt: res.Prompt, Cleared: res.Cleared}, nil
}

func (b *LocalBackend) Complete(input string) (string, error) {
	return b.session.Complete(input), nil
}
