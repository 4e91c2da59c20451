package usecase

import (
	"context"
	"sync"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
)

// SessionFactory builds a fresh ChatSession for a user. Sessions are
// single-use; after Close a new one must be created.
type SessionFactory func(user entity.User) *ChatSession

// SessionRegistry holds at most one live session per user id.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*ChatSession
	factory  SessionFactory
}

func NewSessionRegistry(factory SessionFactory) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*ChatSession),
		factory:  factory,
	}
}

// GetOrCreate returns the user's live session, creating and initializing
// one if needed. Concurrent callers for the same user get the same
// instance; Initialize itself is idempotent so double entry is harmless.
func (r *SessionRegistry) GetOrCreate(ctx context.Context, user entity.User) (*ChatSession, error) {
	r.mu.Lock()
	session, ok := r.sessions[user.ID]
	if !ok {
		session = r.factory(user)
		r.sessions[user.ID] = session
	}
	r.mu.Unlock()

	if err := session.Initialize(ctx); err != nil {
		r.Remove(user.ID)
		return nil, err
	}
	return session, nil
}

// Get returns the live session for a user, or nil.
func (r *SessionRegistry) Get(userID string) *ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID]
}

// Remove closes and forgets the user's session, if any.
func (r *SessionRegistry) Remove(userID string) {
	r.mu.Lock()
	session, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if ok {
		session.Close()
	}
}

// CloseAll tears down every live session (server shutdown).
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*ChatSession)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
