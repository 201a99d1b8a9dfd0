// Package session keeps each user's loaded dataset and filter state between requests.
package session

import (
	"context"
	"sync"
	"time"

	"dataprobe/app"
	"dataprobe/domain/core"
	"dataprobe/domain/filter"
	"dataprobe/internal"
	"dataprobe/internal/metrics"
)

// State is what one session currently shows
type State struct {
	Dataset    *app.Dataset
	Selections filter.Selections
	Outcome    *app.Outcome
}

// Session owns one dataset exclusively. Its state changes only through Update.
type Session struct {
	ID        core.SessionID
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	lastSeen time.Time
}

// State returns a copy of the current state; the selections map is cloned
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Selections = st.Selections.Clone()
	return st
}

// Update replaces the selections and the outcome derived from them
func (s *Session) Update(selections filter.Selections, outcome *app.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Selections = selections.Clone()
	s.state.Outcome = outcome
}

// LastSeen is the last time the session was fetched or created
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Manager indexes live sessions. It guards only its map; sessions guard themselves.
type Manager struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session

	now     func() time.Time
	logger  *internal.Logger
	metrics metrics.Collector
}

// NewManager creates an empty manager; nil logger or collector discard their output
func NewManager(logger *internal.Logger, collector metrics.Collector) *Manager {
	if logger == nil {
		logger = internal.NopLogger()
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Manager{
		sessions: make(map[core.SessionID]*Session),
		now:      time.Now,
		logger:   logger.With("session"),
		metrics:  collector,
	}
}

// Create starts a session for a freshly loaded dataset
func (m *Manager) Create(ds *app.Dataset, selections filter.Selections, outcome *app.Outcome) *Session {
	now := m.now()
	s := &Session{
		ID:        core.NewSessionID(),
		CreatedAt: now,
		lastSeen:  now,
		state:     State{Dataset: ds, Selections: selections.Clone(), Outcome: outcome},
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.RecordGauge("active_sessions", float64(n))
	m.logger.Debug("session %s created for %s", s.ID, ds.Name)
	return s
}

// Replace ends the previous session, if any, and starts a new one. A new upload always
// gets a new id so stale pages cannot act on the new dataset.
func (m *Manager) Replace(previous core.SessionID, ds *app.Dataset, selections filter.Selections, outcome *app.Outcome) *Session {
	if previous != "" {
		m.End(previous)
	}
	return m.Create(ds, selections, outcome)
}

// Get returns a live session and marks it as seen
func (m *Manager) Get(id core.SessionID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

// End tears a session down. It reports whether the session existed.
func (m *Manager) End(id core.SessionID) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.metrics.RecordGauge("active_sessions", float64(n))
		m.logger.Debug("session %s ended", id)
	}
	return ok
}

// Sweep ends every session idle for longer than ttl and returns how many it removed
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.metrics.RecordGauge("active_sessions", float64(n))
		m.metrics.RecordHistogram("expired_sessions", float64(removed))
		m.logger.Info("expired %d idle sessions, %d remain", removed, n)
	}
	return removed
}

// Len is the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunSweeper sweeps every interval until ctx is cancelled
func (m *Manager) RunSweeper(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(ttl)
		}
	}
}
