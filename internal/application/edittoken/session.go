package edittoken

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the pending edit of one chat. It lives from dialog entry until
// completion, cancellation or error and is never persisted.
type Session struct {
	ID              string
	ChatID          int64
	State           State
	TokenAddress    string
	Icon            *string
	DefaultSlippage int
	StartedAt       time.Time
}

func newSession(chatID int64, tokenAddress string) *Session {
	return &Session{
		ID:           uuid.New().String(),
		ChatID:       chatID,
		State:        StateActionChoice,
		TokenAddress: tokenAddress,
		StartedAt:    time.Now(),
	}
}

// SessionStore holds at most one session per chat.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

func (s *SessionStore) Get(chatID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

// Put stores sess, silently replacing any unfinished session of the same chat.
func (s *SessionStore) Put(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ChatID] = sess
	s.mu.Unlock()
}

func (s *SessionStore) Delete(chatID int64) {
	s.mu.Lock()
	delete(s.sessions, chatID)
	s.mu.Unlock()
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
