package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"talentscout/pkg/effect"
	"talentscout/pkg/logx"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session not found")

// Manager holds the live sessions. Sessions share no mutable state.
type Manager struct {
	runtime  *effect.BaseRuntime
	logger   *logx.Logger
	sessions map[string]*Session
	opts     Options
	mu       sync.RWMutex
}

// NewManager creates a Manager whose sessions call models through rt.
func NewManager(rt *effect.BaseRuntime, opts *Options) *Manager {
	return &Manager{
		runtime:  rt,
		opts:     *opts,
		sessions: make(map[string]*Session),
		logger:   logx.NewLogger("sessions"),
	}
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.New().String(), m.runtime, &m.opts)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("🆕 Session %s created", s.id)
	return s
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete drops a session. Its archived report, if any, is kept.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.logger.Info("🗑️ Session %s deleted", id)
	return true
}

// List returns snapshots of every session, oldest first.
func (m *Manager) List() []View {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	views := make([]View, 0, len(all))
	for _, s := range all {
		views = append(views, s.Snapshot())
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}
