// Package sessions keeps the live analysis sessions served over HTTP. Each
// session has its own engine; sessions share one report cache.
package sessions

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/buemura/contractlens/internal/cache"
	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/internal/editor"
	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// newID and trigger are variables so tests can replace them.
var (
	newID   = uuid.NewString
	trigger = (*engine.Engine).Trigger
)

// Manager manages session lifecycle: create, look up, list, delete.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	base     config.Engine
	cache    *cache.Cache
	opts     []engine.Option
	logger   *zap.SugaredLogger
}

// NewManager creates a manager whose sessions start from base. opts are
// passed to every engine, e.g. an AI analyzer.
func NewManager(base config.Engine, logger *zap.SugaredLogger, opts ...engine.Option) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		base:     base,
		cache:    cache.New(base.CacheSize),
		opts:     opts,
		logger:   logger,
	}
}

// Create starts a session for source with p merged over the base config.
// A non-empty source is scheduled for analysis right away.
func (m *Manager) Create(source string, p config.Partial) (*Session, error) {
	cfg, err := m.base.Apply(p)
	if err != nil {
		return nil, err
	}

	id := newID()
	buf := editor.NewBuffer(source)
	opts := append([]engine.Option{}, m.opts...)
	opts = append(opts,
		engine.WithEditor(buf),
		engine.WithCache(m.cache),
		engine.WithLogger(m.logger.With("session", id)),
	)
	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Engine:    eng,
		Buffer:    buf,
		updatedAt: time.Now(),
	}
	s.token, err = eng.Subscribe(func(r *types.Report) { s.observe(r) })
	if err != nil {
		_ = eng.Close()
		return nil, err
	}

	if source != "" {
		if err := trigger(eng, source); err != nil {
			_ = eng.Close()
			return nil, err
		}
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	m.logger.Debugw("session created", "session", id, "bytes", len(source))
	return s, nil
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return s, nil
}

// List returns all sessions sorted by CreatedAt descending.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})
	return result
}

// Delete removes a session and disposes its engine.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	s.Engine.Unsubscribe(s.token)
	return s.Engine.Close()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close disposes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		_ = s.Engine.Close()
	}
}
