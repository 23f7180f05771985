package domain

import (
	"context"
	"time"
)

// GoalID identifies a goal
type GoalID string

// Goal is one self-set intention shown on the dashboard. Goals count
// toward the experience score.
type Goal struct {
	ID        GoalID    `json:"id"`
	UserID    UserID    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// GoalStore persists goals.
type GoalStore interface {
	AppendGoal(ctx context.Context, goal *Goal) error
	ListGoalsByUser(ctx context.Context, userID UserID, limit int) ([]*Goal, error)
}
