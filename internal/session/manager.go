package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds one user's interactive context: the key-value state, the
// history ledger inside it, and access bookkeeping for idle eviction.
// Writes within a session are serialized by mu; sessions never share state.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu           sync.Mutex
	lastAccessed time.Time
	state        *State
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New(),
		CreatedAt:    now,
		lastAccessed: now,
		state:        NewState(),
	}
}

func (s *Session) State() *State {
	return s.state
}

// ledger fetches the session's ledger from state, creating it on first use.
// Callers must hold s.mu.
func (s *Session) ledger() *Ledger {
	return s.state.GetOrDefault(KeyHistory, &Ledger{}).(*Ledger)
}

// Record appends one entry to the session's history ledger. Missing optional
// fields are recorded as absent, never rejected.
func (s *Session) Record(entry HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger().Record(entry)
}

// History returns the session's ledger entries most-recent-first. A session
// that has recorded nothing yields an empty slice.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger().Recent()
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// Manager owns the live sessions of the process. Sessions are created
// explicitly, looked up by id, and torn down either explicitly or by the
// idle sweeper. Each session's data is destroyed atomically with it.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	idleTTL  time.Duration
}

func NewManager(idleTTL time.Duration) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		idleTTL:  idleTTL,
	}
}

func (m *Manager) Create() *Session {
	s := newSession()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// End removes the session and clears its state. Reports whether the session
// existed.
func (m *Manager) End(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.state.ClearAll()
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sweep evicts sessions idle longer than the TTL and returns their ids so
// the caller can release resources held outside the manager.
func (m *Manager) sweep(now time.Time) []uuid.UUID {
	if m.idleTTL <= 0 {
		return nil
	}

	m.mu.Lock()
	var expired []uuid.UUID
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.idleTTL {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	return expired
}

// RunSweeper evicts idle sessions on the given interval until ctx is
// cancelled, invoking onEvict for each ended session.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration, onEvict func(uuid.UUID)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, id := range m.sweep(now) {
				slog.Info("evicting idle session", "session_id", id)
				if onEvict != nil {
					onEvict(id)
				}
			}
		}
	}
}
