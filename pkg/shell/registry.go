package shell

import (
	"fmt"
	"sort"
)

// Kind tags how a registry entry came to exist.
type Kind int

const (
	KindBuiltin Kind = iota
	KindSystemInfo
	KindPackage
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindSystemInfo:
		return "system"
	case KindPackage:
		return "package"
	default:
		return "unknown"
	}
}

// HandlerFunc runs one command. args[0] is the command name as typed.
// Handlers report failures in the returned text; they never return errors.
type HandlerFunc func(s *Session, args []string) string

// Entry is a dispatchable command.
type Entry struct {
	Name    string
	Kind    Kind
	Summary string
	// Package names the providing package for KindPackage entries.
	Package string
	Run     HandlerFunc
}

// Registry maps command names to entries. A name has at most one entry, so
// package commands can never shadow builtins or system commands.
type Registry struct {
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds e. It fails if the name is already taken.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" || e.Run == nil {
		return fmt.Errorf("register %q: name and handler are required", e.Name)
	}
	if cur, ok := r.entries[e.Name]; ok {
		return fmt.Errorf("register %q: already registered as %s", e.Name, cur.Kind)
	}
	r.entries[e.Name] = e
	return nil
}

// Unregister removes name if it is registered with kind.
func (r *Registry) Unregister(name string, kind Kind) bool {
	cur, ok := r.entries[name]
	if !ok || cur.Kind != kind {
		return false
	}
	delete(r.entries, name)
	return true
}

func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the sorted names registered with kind.
func (r *Registry) Names(kind Kind) []string {
	var out []string
	for name, e := range r.entries {
		if e.Kind == kind {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Len reports the number of registered entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range builtinEntries() {
		e.Kind = KindBuiltin
		_ = r.Register(e)
	}
	for _, e := range systemEntries() {
		e.Kind = KindSystemInfo
		_ = r.Register(e)
	}
	return r
}
