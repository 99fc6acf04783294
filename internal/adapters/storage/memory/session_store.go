package memory

import (
	"sync"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// SessionStore keeps in-flight sessions in a concurrent map. Sessions
// are deliberately not persisted anywhere: a restart loses drafts.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.UserID]*domain.UserSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.UserID]*domain.UserSession),
	}
}

func (s *SessionStore) Get(id domain.UserID) (*domain.UserSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *SessionStore) Put(session *domain.UserSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.UserID] = session
}

func (s *SessionStore) Delete(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}
