package tokens

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mindsprout/pal-agent/internal/domain"
	"github.com/mindsprout/pal-agent/internal/observability"
)

// Service is the authoritative token authority backed by a TokenStore.
// Regeneration is computed lazily on read: every whole period elapsed
// since the stored deadline credits one token up to the cap. A missing
// record means a new user at the full cap.
type Service struct {
	mu     sync.Mutex
	store  domain.TokenStore
	cap    int
	period time.Duration
	now    func() time.Time
}

func NewService(store domain.TokenStore, cap int, period time.Duration) *Service {
	return &Service{
		store:  store,
		cap:    cap,
		period: period,
		now:    time.Now,
	}
}

// Status returns the user's balance after applying any due regeneration.
func (s *Service) Status(ctx context.Context, userID domain.UserID) (domain.TokenStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return domain.TokenStatus{}, err
	}
	if s.applyRegen(state) {
		if err := s.save(ctx, state); err != nil {
			return domain.TokenStatus{}, err
		}
	}
	return statusOf(state), nil
}

// Spend consumes one token for a gated action. With an empty balance it
// returns ErrInsufficientTokens and changes nothing.
func (s *Service) Spend(ctx context.Context, userID domain.UserID, action string) (domain.TokenStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, userID)
	if err != nil {
		return domain.TokenStatus{}, err
	}
	s.applyRegen(state)

	if state.Balance <= 0 {
		return statusOf(state), fmt.Errorf("%s: %w", action, domain.ErrInsufficientTokens)
	}

	state.Balance--
	if state.NextRegenAt.IsZero() {
		state.NextRegenAt = s.now().Add(s.period)
	}
	if err := s.save(ctx, state); err != nil {
		return domain.TokenStatus{}, err
	}

	observability.LoggerFromContext(ctx).Info("token spent",
		"user_id", userID, "action", action, "balance", state.Balance)
	return statusOf(state), nil
}

func (s *Service) load(ctx context.Context, userID domain.UserID) (*domain.TokenState, error) {
	state, err := s.store.GetTokenState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load token state: %w", err)
	}
	if state == nil {
		state = &domain.TokenState{UserID: userID, Balance: s.cap}
	}
	return state, nil
}

func (s *Service) save(ctx context.Context, state *domain.TokenState) error {
	state.UpdatedAt = s.now()
	if err := s.store.PutTokenState(ctx, state); err != nil {
		return fmt.Errorf("save token state: %w", err)
	}
	return nil
}

// applyRegen credits due tokens in place and reports whether anything
// changed. Each credit advances the deadline by one whole period so a
// burst of reads cannot double credit.
func (s *Service) applyRegen(state *domain.TokenState) bool {
	if state.NextRegenAt.IsZero() {
		return false
	}
	now := s.now()
	changed := false
	for !state.NextRegenAt.After(now) && state.Balance < s.cap {
		state.Balance++
		state.NextRegenAt = state.NextRegenAt.Add(s.period)
		changed = true
	}
	if state.Balance >= s.cap {
		state.NextRegenAt = time.Time{}
		changed = true
	}
	return changed
}

func statusOf(state *domain.TokenState) domain.TokenStatus {
	return domain.TokenStatus{Balance: state.Balance, NextRegenAt: state.NextRegenAt}
}
