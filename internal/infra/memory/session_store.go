package memory

import (
	"context"
	"sync"

	"lead-intake-bot/internal/domain"
)

// SessionStore holds sessions for the process lifetime only.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]domain.Session)}
}

func (s *SessionStore) Get(_ context.Context, userID int64) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return domain.NewSession(userID), nil
	}
	return clone(sess), nil
}

func (s *SessionStore) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = *clone(*sess)
	return nil
}

func (s *SessionStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Len is the number of users with a stored session.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Копируем, чтобы вызывающий код не менял состояние в обход Save.
func clone(sess domain.Session) *domain.Session {
	out := sess
	if sess.Pending != nil {
		p := *sess.Pending
		out.Pending = &p
	}
	return &out
}
