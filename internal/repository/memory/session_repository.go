package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"ai-procedure-assistant-be/pkg/store"
)

type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl, purgeInterval time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	if purgeInterval <= 0 {
		purgeInterval = 10 * time.Minute
	}
	return &SessionRepository{
		cache: cache.New(ttl, purgeInterval),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Stale lists sessions idle longer than maxIdle. The cache's own TTL
// is the backstop; this drives the earlier cooperative sweep that
// respects in-flight turn locks.
func (r *SessionRepository) Stale(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)
	var ids []string
	for id, item := range r.cache.Items() {
		session, ok := item.Object.(*store.Session)
		if !ok {
			continue
		}
		if session.LastAccessedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}
