package memory

import (
	"testing"
	"time"

	"ai-procedure-assistant-be/pkg/store"
)

func TestSessionRepositorySaveGetDelete(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Hour)

	session := &store.Session{
		ID:             "s1",
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
		Stage:          store.StageIdle,
		LastCollection: "ho_tich_cap_xa",
	}
	repo.Save(session)

	got, found := repo.Get("s1")
	if !found {
		t.Fatal("Get() did not find a saved session")
	}
	if got.LastCollection != "ho_tich_cap_xa" {
		t.Errorf("LastCollection = %s", got.LastCollection)
	}

	if _, found := repo.Get("missing"); found {
		t.Error("Get(missing) reported found")
	}

	repo.Delete("s1")
	if _, found := repo.Get("s1"); found {
		t.Error("session survived Delete()")
	}
}

func TestSessionRepositorySaveOverwrites(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Hour)

	repo.Save(&store.Session{ID: "s1", LastConfidence: 0.5})
	repo.Save(&store.Session{ID: "s1", LastConfidence: 0.9})

	got, _ := repo.Get("s1")
	if got.LastConfidence != 0.9 {
		t.Errorf("LastConfidence = %v, want the later save", got.LastConfidence)
	}
}

func TestSessionRepositoryStale(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Hour)
	now := time.Now()

	repo.Save(&store.Session{ID: "fresh", LastAccessedAt: now})
	repo.Save(&store.Session{ID: "idle", LastAccessedAt: now.Add(-2 * time.Hour)})

	stale := repo.Stale(30 * time.Minute)
	if len(stale) != 1 || stale[0] != "idle" {
		t.Errorf("Stale() = %v, want [idle]", stale)
	}

	if got := repo.Stale(3 * time.Hour); len(got) != 0 {
		t.Errorf("Stale(3h) = %v, want none", got)
	}
}
