package state

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStorage keeps chat state in process memory. It is used when no
// database is configured; state is lost on restart.
type MemoryStorage struct {
	byUser    *cache.Cache
	bySession *cache.Cache
}

func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}

	s := &MemoryStorage{
		byUser:    cache.New(ttl, cleanup),
		bySession: cache.New(ttl, cleanup),
	}
	s.byUser.OnEvicted(func(_ string, item any) {
		if ts, ok := item.(*TelegramSession); ok && ts.SessionID != "" {
			s.bySession.Delete(ts.SessionID)
		}
	})
	return s
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *MemoryStorage) Get(_ context.Context, userID int64) (*TelegramSession, error) {
	item, ok := s.byUser.Get(userKey(userID))
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return cloneSession(item.(*TelegramSession)), nil
}

func (s *MemoryStorage) Set(_ context.Context, session *TelegramSession) error {
	key := userKey(session.UserID)
	if prev, ok := s.byUser.Get(key); ok {
		if old := prev.(*TelegramSession); old.SessionID != "" && old.SessionID != session.SessionID {
			s.bySession.Delete(old.SessionID)
		}
	}

	stored := cloneSession(session)
	s.byUser.Set(key, stored, cache.DefaultExpiration)
	if stored.SessionID != "" {
		s.bySession.Set(stored.SessionID, session.UserID, cache.DefaultExpiration)
	}
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, userID int64) error {
	s.byUser.Delete(userKey(userID))
	return nil
}

func (s *MemoryStorage) GetBySessionID(ctx context.Context, sessionID string) (*TelegramSession, error) {
	item, ok := s.bySession.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return s.Get(ctx, item.(int64))
}

func cloneSession(ts *TelegramSession) *TelegramSession {
	out := *ts
	out.StateData = append([]byte(nil), ts.StateData...)
	return &out
}
