package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-procedure-assistant-be/pkg/store"
)

const keyPrefix = "assistant:session:"

// SessionRepository keeps dialogue sessions in Redis so multiple
// server instances share them. Redis expiry replaces the cooperative
// sweep; Stale always reports nothing.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewSessionRepository(client *redis.Client, ttl time.Duration, logger *log.Logger) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository{client: client, ttl: ttl, logger: logger}
}

func (r *SessionRepository) Save(session *store.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		r.logger.Printf("[ERROR] Session marshal failed for %s: %v", session.ID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Set(ctx, key(session.ID), data, r.ttl).Err(); err != nil {
		r.logger.Printf("[ERROR] Session save failed for %s: %v", session.ID, err)
	}
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := r.client.Get(ctx, key(sessionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Printf("[ERROR] Session read failed for %s: %v", sessionID, err)
		}
		return nil, false
	}
	var session store.Session
	if err := json.Unmarshal(data, &session); err != nil {
		r.logger.Printf("[ERROR] Session unmarshal failed for %s: %v", sessionID, err)
		return nil, false
	}
	return &session, true
}

func (r *SessionRepository) Delete(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Del(ctx, key(sessionID)).Err(); err != nil {
		r.logger.Printf("[ERROR] Session delete failed for %s: %v", sessionID, err)
	}
}

// Stale returns nothing: key TTLs expire sessions server-side.
func (r *SessionRepository) Stale(time.Duration) []string {
	return nil
}

func key(sessionID string) string {
	return fmt.Sprintf("%s%s", keyPrefix, sessionID)
}
