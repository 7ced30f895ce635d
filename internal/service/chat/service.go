package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/BuysCode/giovannibot/backend/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// Service keeps the live sessions of this process, one per open region view.
type Service struct {
	completer Completer
	opts      []SessionOption

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates an empty registry whose sessions share completer and
// opts.
func NewService(completer Completer, opts ...SessionOption) *Service {
	return &Service{
		completer: completer,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// CreateSession opens a session scoped to regionName.
func (s *Service) CreateSession(_ context.Context, regionName string) *Session {
	session := NewSession(uuid.NewString(), regionName, s.completer, s.opts...)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	return session
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ChangeRegion resets the session and scopes it to regionName.
func (s *Service) ChangeRegion(ctx context.Context, sessionID, regionName string) (chat.Snapshot, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Snapshot{}, err
	}
	return session.ChangeRegion(regionName), nil
}

// Submit forwards text to the session; see Session.Submit.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (<-chan struct{}, bool, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	done, accepted := session.Submit(ctx, text)
	return done, accepted, nil
}

// DeleteSession discards a session and its transcript.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
