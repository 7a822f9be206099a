// Package shell simulates a POSIX-like shell over a vfs.Store.
//
// A Session owns its filesystem, working directory, transcript and package
// state. Run dispatches one line through the command registry and never
// fails: every error becomes output text.
package shell

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sameehj/vsh/pkg/pkgmgr"
	"github.com/sameehj/vsh/pkg/vfs"
)

const (
	defaultUser     = "current-user"
	defaultHostname = "vsh.local"
)

// Options configures a new Session. Zero values pick defaults.
type Options struct {
	User     string
	Hostname string
	// Store is the session filesystem; nil means a freshly seeded one.
	Store *vfs.Store
	// Packages seeds the package state; nil means pkgmgr.DefaultRecords.
	Packages []pkgmgr.Record
	Clock    func() time.Time
	Logger   *slog.Logger
	// Observe is called after every dispatch.
	Observe func(name string, kind Kind, found bool)
}

// CommandRecord is one submitted line.
type CommandRecord struct {
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is what a single Run appended to the transcript.
type Result struct {
	Lines   []string `json:"lines"`
	Cleared bool     `json:"cleared"`
	Prompt  string   `json:"prompt"`
}

// Session is one user's shell state. Its methods are safe for concurrent use;
// commands are processed one at a time.
type Session struct {
	mu sync.Mutex

	fs       *vfs.Store
	cwd      []string
	history  []string
	commands []CommandRecord
	packages *pkgmgr.Set
	registry *Registry

	user     string
	hostname string
	now      func() time.Time
	logger   *slog.Logger
	observe  func(string, Kind, bool)
}

func New(opts Options) *Session {
	s := &Session{
		fs:       opts.Store,
		user:     opts.User,
		hostname: opts.Hostname,
		now:      opts.Clock,
		logger:   opts.Logger,
		observe:  opts.Observe,
		registry: newDefaultRegistry(),
	}
	if s.fs == nil {
		s.fs = vfs.NewSeeded()
	}
	if s.user == "" {
		s.user = defaultUser
	}
	if s.hostname == "" {
		s.hostname = defaultHostname
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.fs.SetClock(s.now)

	records := opts.Packages
	if records == nil {
		records = pkgmgr.DefaultRecords()
	}
	s.packages = pkgmgr.NewSet(records)
	for _, rec := range s.packages.Installed() {
		s.registerPackage(rec)
	}
	return s
}

// Run dispatches line and appends the prompt echo and output to the
// transcript. "clear" empties the transcript instead.
func (s *Session) Run(line string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	line = strings.TrimRight(line, "\r\n")
	args := strings.Fields(line)
	if strings.TrimSpace(line) != "" {
		s.commands = append(s.commands, CommandRecord{Command: line, Timestamp: s.now()})
	}

	name := ""
	if len(args) > 0 {
		name = strings.ToLower(args[0])
	}
	if name == "clear" {
		s.history = nil
		s.notify(name, KindBuiltin, true)
		return Result{Lines: []string{}, Cleared: true, Prompt: s.prompt()}
	}

	echo := s.prompt() + " " + line
	output := s.dispatch(name, args)

	lines := []string{echo}
	if output != "" {
		lines = append(lines, output)
	}
	s.history = append(s.history, lines...)
	return Result{Lines: lines, Prompt: s.prompt()}
}

func (s *Session) dispatch(name string, args []string) (output string) {
	if name == "" {
		return ""
	}
	entry, ok := s.registry.Lookup(name)
	if !ok {
		s.notify(name, KindBuiltin, false)
		return fmt.Sprintf("Command not found: %s. Check that the providing package is installed.", name)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logError("command_panic", "command", name, "panic", r)
			output = fmt.Sprintf("%s: internal error", name)
		}
	}()
	output = entry.Run(s, args)
	s.notify(name, entry.Kind, true)
	s.logDebug("command_dispatched", "command", name, "kind", entry.Kind.String())
	return output
}

func (s *Session) notify(name string, kind Kind, found bool) {
	if s.observe != nil {
		s.observe(name, kind, found)
	}
}

// Complete returns input with a unique "cd" target completed, or input
// unchanged.
func (s *Session) Complete(input string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return complete(s.fs, s.cwd, input)
}

// History returns a copy of the transcript.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.history...)
}

// Commands returns a copy of the submitted command log.
func (s *Session) Commands() []CommandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CommandRecord{}, s.commands...)
}

// Prompt returns the prompt shown before input, e.g. "~/Documents $".
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt()
}

// Cwd returns the working directory as an absolute slash path.
func (s *Session) Cwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return vfs.Format(s.cwd)
}

// Tree returns a snapshot of the whole filesystem.
func (s *Session) Tree() (*vfs.TreeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Tree("/")
}

// WriteFile stores an uploaded file, creating parent directories as needed.
// Relative paths resolve against the working directory.
func (s *Session) WriteFile(path string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	segs := s.abs(path)
	if len(segs) == 0 {
		return &vfs.PathError{Op: "upload", Path: path, Err: vfs.ErrIsDirectory}
	}
	if err := s.fs.MkdirAll(vfs.Format(segs[:len(segs)-1])); err != nil {
		return err
	}
	return s.fs.Write(vfs.Format(segs), content)
}

// Packages returns the session's package records.
func (s *Session) Packages() []pkgmgr.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packages.Search("")
}

func (s *Session) prompt() string {
	return vfs.Display(s.cwd) + " $"
}

func (s *Session) abs(p string) []string {
	return vfs.Split(s.cwd, p)
}

func (s *Session) path(p string) string {
	return vfs.Format(s.abs(p))
}

// containsCwd reports whether segs is the working directory or one of its
// ancestors.
func (s *Session) containsCwd(segs []string) bool {
	if len(segs) > len(s.cwd) {
		return false
	}
	for i := range segs {
		if segs[i] != s.cwd[i] {
			return false
		}
	}
	return true
}

func (s *Session) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Session) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Session) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
