package memory

import (
	"context"
	"sync"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// TokenStore is a simple in-memory implementation of domain.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	states map[domain.UserID]domain.TokenState
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		states: make(map[domain.UserID]domain.TokenState),
	}
}

// GetTokenState returns nil for an unknown user, which the token service
// treats as a fresh record at the full cap.
func (s *TokenStore) GetTokenState(_ context.Context, userID domain.UserID) (*domain.TokenState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	copied := state
	return &copied, nil
}

func (s *TokenStore) PutTokenState(_ context.Context, state *domain.TokenState) error {
	if state == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.UserID] = *state
	return nil
}
