package domain

import (
	"context"
	"time"
)

// TokenStatus is the server-authoritative view of a user's chat tokens.
// A zero NextRegenAt means no regeneration is pending (balance at cap).
type TokenStatus struct {
	Balance     int       `json:"balance"`
	NextRegenAt time.Time `json:"next_regen_at"`
}

// TokenService is the spend/status collaborator gating token-consuming
// actions. Spend returns the post-spend status on success.
type TokenService interface {
	Spend(ctx context.Context, userID UserID, action string) (TokenStatus, error)
	Status(ctx context.Context, userID UserID) (TokenStatus, error)
}

// TokenState is the persisted token record for one user.
type TokenState struct {
	UserID      UserID
	Balance     int
	NextRegenAt time.Time
	UpdatedAt   time.Time
}

// TokenStore persists token state. A missing record means the user is at
// the full starting balance.
type TokenStore interface {
	GetTokenState(ctx context.Context, userID UserID) (*TokenState, error)
	PutTokenState(ctx context.Context, state *TokenState) error
}
