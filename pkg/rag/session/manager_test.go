package session

import (
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"ai-procedure-assistant-be/pkg/rag"
	"ai-procedure-assistant-be/pkg/store"
)

// fakeStore is an in-test Store backed by a plain map.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*store.Session
	stale    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*store.Session{}}
}

func (f *fakeStore) Get(id string) (*store.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	return s, ok
}

func (f *fakeStore) Save(s *store.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
}

func (f *fakeStore) Delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
}

func (f *fakeStore) Stale(time.Duration) []string {
	return f.stale
}

func newTestManager(repo Store) *Manager {
	return NewManager(repo, log.New(io.Discard, "", 0))
}

func TestCreateAndGet(t *testing.T) {
	repo := newFakeStore()
	m := newTestManager(repo)

	created := m.Create()
	if created.ID == "" {
		t.Fatal("Create() returned an empty ID")
	}
	if created.Stage != store.StageIdle {
		t.Errorf("Stage = %s, want IDLE", created.Stage)
	}

	got, err := m.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Get() ID = %s, want %s", got.ID, created.ID)
	}

	_, err = m.Get("missing")
	if !errors.Is(err, rag.ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func TestGetReturnsClone(t *testing.T) {
	repo := newFakeStore()
	m := newTestManager(repo)

	created := m.Create()
	got, _ := m.Get(created.ID)
	got.LastCollection = "cu_tru"

	again, _ := m.Get(created.ID)
	if again.LastCollection != "" {
		t.Error("mutating a Get() result leaked into the store")
	}
}

func TestCommitPersistsOnlyOnCall(t *testing.T) {
	repo := newFakeStore()
	m := newTestManager(repo)

	created := m.Create()
	work, unlock := m.Acquire(created.ID)
	work.LastCollection = "ho_tich_cap_xa"
	work.LastConfidence = 0.9

	// Not committed yet: the store still holds the original.
	stored, _ := repo.Get(created.ID)
	if stored.LastCollection != "" {
		t.Fatal("work-in-progress leaked into the store before Commit")
	}

	m.Commit(work)
	unlock()

	stored, _ = repo.Get(created.ID)
	if stored.LastCollection != "ho_tich_cap_xa" || stored.LastConfidence != 0.9 {
		t.Errorf("Commit() did not persist: %+v", stored)
	}
	if stored.LastAccessedAt.IsZero() {
		t.Error("Commit() must refresh LastAccessedAt")
	}

	// Later mutation of the committed clone must not leak either.
	work.LastCollection = "cu_tru"
	stored, _ = repo.Get(created.ID)
	if stored.LastCollection != "ho_tich_cap_xa" {
		t.Error("Commit() stored the live pointer instead of a clone")
	}
}

func TestAcquireUnknownIDCreates(t *testing.T) {
	m := newTestManager(newFakeStore())

	work, unlock := m.Acquire("never-seen")
	defer unlock()

	if work.ID == "" {
		t.Fatal("Acquire() returned a session without an ID")
	}
	if work.ID == "never-seen" {
		t.Error("unknown IDs must be replaced, not adopted")
	}
}

func TestAcquireSerializesTurns(t *testing.T) {
	repo := newFakeStore()
	m := newTestManager(repo)
	created := m.Create()

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work, unlock := m.Acquire(created.ID)
			defer unlock()
			work.LowConfidenceStreak++
			m.Commit(work)
		}()
	}
	wg.Wait()

	stored, _ := repo.Get(created.ID)
	if stored.LowConfidenceStreak != turns {
		t.Errorf("LowConfidenceStreak = %d, want %d (lost update)", stored.LowConfidenceStreak, turns)
	}
}

func TestAcquireExisting(t *testing.T) {
	m := newTestManager(newFakeStore())
	created := m.Create()

	work, unlock, err := m.AcquireExisting(created.ID)
	if err != nil {
		t.Fatalf("AcquireExisting() error = %v", err)
	}
	unlock()
	if work.ID != created.ID {
		t.Errorf("ID = %s, want %s", work.ID, created.ID)
	}

	_, _, err = m.AcquireExisting("missing")
	if !errors.Is(err, rag.ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
	// The failed acquire must have released the lock.
	done := make(chan struct{})
	go func() {
		unlock := m.Lock("missing")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock leaked by a failed AcquireExisting")
	}
}

func TestSweepSkipsLockedSessions(t *testing.T) {
	repo := newFakeStore()
	m := newTestManager(repo)

	idle := m.Create()
	busy := m.Create()
	repo.stale = []string{idle.ID, busy.ID}

	unlock := m.Lock(busy.ID)
	removed := m.Sweep(time.Minute)
	unlock()

	if removed != 1 {
		t.Fatalf("Sweep() removed %d, want 1", removed)
	}
	if _, found := repo.Get(idle.ID); found {
		t.Error("idle session survived the sweep")
	}
	if _, found := repo.Get(busy.ID); !found {
		t.Error("in-flight session was swept")
	}
}

func TestAcquireRetriesAfterSweep(t *testing.T) {
	repo := newFakeStore()
	m := newTestManager(repo)
	created := m.Create()

	// Simulate the sweeper winning the race: the session vanishes from
	// the store after Acquire resolved the ID.
	repo.Delete(created.ID)

	work, unlock := m.Acquire(created.ID)
	defer unlock()

	if work.ID == created.ID {
		t.Error("Acquire() resurrected a swept session instead of creating a fresh one")
	}
	if work.ID == "" {
		t.Error("Acquire() returned no session")
	}
}
