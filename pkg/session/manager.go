// Package session hosts shell sessions for the network transports.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sameehj/vsh/pkg/pkgmgr"
	"github.com/sameehj/vsh/pkg/shell"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrLimitReached = errors.New("session limit reached")
)

// Session is one hosted shell.
type Session struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time
	Shell      *shell.Session

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Options configures a Manager. Shell is the template for new sessions; its
// Packages field is replaced with the catalog contents when Catalog is set.
type Options struct {
	MaxSessions int
	IdleTimeout time.Duration
	Catalog     *pkgmgr.Catalog
	Shell       shell.Options
	Clock       func() time.Time
	// OnChange receives the active session count after every change.
	OnChange func(active int)
}

type Manager struct {
	opts   Options
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(opts Options) *Manager {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Manager{opts: opts, now: now, sessions: make(map[string]*Session)}
}

func (m *Manager) SetLogger(logger *slog.Logger) {
	m.logger = logger
}

// Create starts a fresh session with its own filesystem and package state.
func (m *Manager) Create(remoteAddr string) (*Session, error) {
	m.mu.Lock()
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		m.logWarn("session_limit_reached", "remote", remoteAddr, "limit", m.opts.MaxSessions)
		return nil, ErrLimitReached
	}

	shellOpts := m.opts.Shell
	shellOpts.Store = nil
	if m.opts.Catalog != nil {
		shellOpts.Packages = m.opts.Catalog.Records()
	}
	if shellOpts.Logger == nil {
		shellOpts.Logger = m.logger
	}
	now := m.now()
	sess := &Session{
		ID:         uuid.NewString(),
		RemoteAddr: remoteAddr,
		StartedAt:  now,
		Shell:      shell.New(shellOpts),
		lastUsed:   now,
	}
	m.sessions[sess.ID] = sess
	active := len(m.sessions)
	m.mu.Unlock()

	m.logInfo("session_start", "id", sess.ID, "remote", remoteAddr)
	m.changed(active)
	return sess, nil
}

// Get returns the session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch(m.now())
	return sess, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	active := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.logInfo("session_end", "id", id)
	m.changed(active)
	return nil
}

// List returns the sessions oldest first.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap drops sessions idle for longer than IdleTimeout and returns how many
// were removed.
func (m *Manager) Reap() int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.IdleTimeout)
	var expired []string
	m.mu.Lock()
	for id, sess := range m.sessions {
		if sess.LastUsed().Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	active := len(m.sessions)
	m.mu.Unlock()

	for _, id := range expired {
		m.logInfo("session_expired", "id", id)
	}
	if len(expired) > 0 {
		m.changed(active)
	}
	return len(expired)
}

// Run reaps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	if m.opts.IdleTimeout <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	interval := m.opts.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Reap()
		}
	}
}

func (m *Manager) changed(active int) {
	if m.opts.OnChange != nil {
		m.opts.OnChange(active)
	}
}

func (m *Manager) logInfo(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) logWarn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
