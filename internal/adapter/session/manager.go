// Package session keeps per-session key/value stores in memory. A session
// ends when it sits idle past the configured timeout or when it is the least
// recently used one and the session limit is reached; its store goes with it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/form-assist-service/internal/domain"
	"github.com/couchcryptid/form-assist-service/internal/observability"
)

// Manager maps session IDs to stores, most recently used first.
type Manager struct {
	clock       clockwork.Clock
	idleTimeout time.Duration
	maxSessions int
	logger      *slog.Logger
	metrics     *observability.Metrics
	running     atomic.Bool

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	id       string
	store    *Store
	lastSeen time.Time
	prev     *entry
	next     *entry
}

// NewManager creates a Manager. A nil clock uses real time.
func NewManager(clock clockwork.Clock, idleTimeout time.Duration, maxSessions int, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		clock:       clock,
		idleTimeout: idleTimeout,
		maxSessions: maxSessions,
		logger:      logger,
		metrics:     metrics,
		entries:     make(map[string]*entry),
	}
}

// Get returns the live store for id and marks the session as used.
// An expired session is ended and reported as missing.
func (m *Manager) Get(id string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	now := m.clock.Now()
	if m.expired(e, now) {
		m.end(e, "expired")
		return nil, false
	}
	e.lastSeen = now
	m.moveToFront(e)
	return e.store, true
}

// Create starts a new session with an empty store.
func (m *Manager) Create() (string, *Store) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{
		id:       uuid.NewString(),
		store:    NewStore(),
		lastSeen: m.clock.Now(),
	}
	m.entries[e.id] = e
	m.addToFront(e)
	m.metrics.SessionsActive.Set(float64(len(m.entries)))

	if len(m.entries) > m.maxSessions {
		m.end(m.tail, "evicted")
	}
	return e.id, e.store
}

// Resolve returns the store for id, starting a new session when id is
// unknown or expired. created reports whether a new ID was issued.
func (m *Manager) Resolve(id string) (sessionID string, store domain.SessionStore, created bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return id, s, false
		}
	}
	newID, s := m.Create()
	return newID, s, true
}

// Sweep ends every session idle past the timeout and returns how many ended.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	n := 0
	// The tail is always the least recently seen session.
	for m.tail != nil && m.expired(m.tail, now) {
		m.end(m.tail, "expired")
		n++
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	m.running.Store(true)
	defer m.running.Store(false)
	m.logger.Info("session sweeper started", "interval", interval, "idle_timeout", m.idleTimeout)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("session sweeper stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("expired sessions swept", "count", n)
			}
		}
	}
}

// CheckReadiness reports ready once the sweeper is running.
func (m *Manager) CheckReadiness(_ context.Context) error {
	if !m.running.Load() {
		return errors.New("session sweeper is not running")
	}
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) expired(e *entry, now time.Time) bool {
	return now.Sub(e.lastSeen) >= m.idleTimeout
}

// end destroys a session and its store. Callers hold m.mu.
func (m *Manager) end(e *entry, reason string) {
	delete(m.entries, e.id)
	m.remove(e)
	e.store.Clear()
	m.metrics.SessionsEnded.WithLabelValues(reason).Inc()
	m.metrics.SessionsActive.Set(float64(len(m.entries)))
	m.logger.Debug("session ended", "session_id", e.id, "reason", reason)
}

func (m *Manager) moveToFront(e *entry) {
	if e == m.head {
		return
	}
	m.remove(e)
	m.addToFront(e)
}

func (m *Manager) addToFront(e *entry) {
	e.next = m.head
	e.prev = nil
	if m.head != nil {
		m.head.prev = e
	}
	m.head = e
	if m.tail == nil {
		m.tail = e
	}
}

func (m *Manager) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		m.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		m.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
