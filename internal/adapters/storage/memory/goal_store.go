package memory

import (
	"context"
	"sync"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// GoalStore is a simple in-memory implementation of domain.GoalStore.
type GoalStore struct {
	mu       sync.RWMutex
	byUserID map[domain.UserID][]*domain.Goal
}

func NewGoalStore() *GoalStore {
	return &GoalStore{
		byUserID: make(map[domain.UserID][]*domain.Goal),
	}
}

func (s *GoalStore) AppendGoal(_ context.Context, goal *domain.Goal) error {
	if goal == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUserID[goal.UserID] = append(s.byUserID[goal.UserID], goal)
	return nil
}

// ListGoalsByUser returns the last limit goals in creation order.
// If limit <= 0, returns all.
func (s *GoalStore) ListGoalsByUser(_ context.Context, userID domain.UserID, limit int) ([]*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goals := s.byUserID[userID]
	if limit > 0 && len(goals) > limit {
		goals = goals[len(goals)-limit:]
	}
	out := make([]*domain.Goal, len(goals))
	copy(out, goals)
	return out, nil
}
