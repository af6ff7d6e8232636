package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-procedure-assistant-be/pkg/rag"
	"ai-procedure-assistant-be/pkg/store"
)

// Store is the persistence backend for dialogue sessions.
type Store interface {
	Get(sessionID string) (*store.Session, bool)
	Save(session *store.Session)
	Delete(sessionID string)
	// Stale returns IDs of sessions idle longer than maxIdle.
	Stale(maxIdle time.Duration) []string
}

// Manager handles session operations. Callers work on a clone and the
// stored session only changes when Commit is called, so a failed turn
// leaves the dialogue state untouched.
type Manager struct {
	repo   Store
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a new session manager
func NewManager(repo Store, logger *log.Logger) *Manager {
	return &Manager{
		repo:   repo,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Create allocates a fresh session and persists it immediately.
func (m *Manager) Create() *store.Session {
	now := time.Now()
	session := &store.Session{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		LastAccessedAt: now,
		Stage:          store.StageIdle,
	}
	m.repo.Save(session)
	return session
}

// Get returns a clone of an existing session.
func (m *Manager) Get(sessionID string) (*store.Session, error) {
	session, found := m.repo.Get(sessionID)
	if !found {
		return nil, fmt.Errorf("session %s: %w", sessionID, rag.ErrSessionNotFound)
	}
	return session.Clone(), nil
}

// LoadOrCreate retrieves a clone of the session, creating it when the
// ID is unknown or empty. The second return is the ID actually in use.
func (m *Manager) LoadOrCreate(sessionID string) (*store.Session, string) {
	if sessionID != "" {
		if session, found := m.repo.Get(sessionID); found {
			return session.Clone(), sessionID
		}
		m.logger.Printf("[SESSION] Unknown session %s, creating a new one", sessionID)
	}
	session := m.Create()
	return session.Clone(), session.ID
}

// Acquire serializes a turn: it takes the session's turn lock and only
// then clones, so the clone always reflects the latest committed state.
// Unknown or empty IDs get a fresh session. The caller must invoke the
// returned unlock when the turn ends.
func (m *Manager) Acquire(sessionID string) (*store.Session, func()) {
	for {
		_, sid := m.LoadOrCreate(sessionID)
		unlock := m.Lock(sid)
		if session, found := m.repo.Get(sid); found {
			return session.Clone(), unlock
		}
		// Swept while waiting for the lock
		unlock()
		sessionID = ""
	}
}

// AcquireExisting is Acquire for sessions that must already exist.
func (m *Manager) AcquireExisting(sessionID string) (*store.Session, func(), error) {
	unlock := m.Lock(sessionID)
	session, found := m.repo.Get(sessionID)
	if !found {
		unlock()
		return nil, nil, fmt.Errorf("session %s: %w", sessionID, rag.ErrSessionNotFound)
	}
	return session.Clone(), unlock, nil
}

// Commit persists the worked-on session in one step.
func (m *Manager) Commit(session *store.Session) {
	session.LastAccessedAt = time.Now()
	m.repo.Save(session.Clone())
}

// Delete removes a session.
func (m *Manager) Delete(sessionID string) {
	m.repo.Delete(sessionID)
}

// Lock serializes turns on one session and returns the unlock func.
// Concurrent turns on different sessions proceed independently.
func (m *Manager) Lock(sessionID string) func() {
	m.mu.Lock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Sweep expires idle sessions. A session whose turn lock is held is
// skipped and picked up on the next pass, so in-flight turns never
// lose their state mid-execution.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	removed := 0
	for _, id := range m.repo.Stale(maxIdle) {
		m.mu.Lock()
		lock, ok := m.locks[id]
		m.mu.Unlock()

		if ok && !lock.TryLock() {
			continue
		}

		m.repo.Delete(id)
		m.mu.Lock()
		delete(m.locks, id)
		m.mu.Unlock()

		if ok {
			lock.Unlock()
		}
		removed++
	}
	if removed > 0 {
		m.logger.Printf("[SESSION] Swept %d idle sessions", removed)
	}
	return removed
}

// StartSweeper runs Sweep on an interval until stop is closed.
func (m *Manager) StartSweeper(interval, maxIdle time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep(maxIdle)
			case <-stop:
				return
			}
		}
	}()
}
