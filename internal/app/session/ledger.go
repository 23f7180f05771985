package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mindsprout/pal-agent/internal/domain"
	"github.com/mindsprout/pal-agent/internal/observability"
)

// Ledger is the client-side mirror of one user's token balance. The token
// service is authoritative: every successful spend or status fetch
// reconciles the mirror, so an optimistic decrement can never drift
// permanently. Balance is mutated on three paths only: confirmed spend,
// reconcile, and the regeneration tick; reconcile always wins.
type Ledger struct {
	mu          sync.Mutex
	userID      domain.UserID
	tokens      domain.TokenService
	balance     int
	cap         int
	nextRegenAt time.Time
	regenPeriod time.Duration
	now         func() time.Time

	regenStop chan struct{}
}

// NewLedger creates a ledger starting at the full cap, to be corrected by
// the first reconcile.
func NewLedger(userID domain.UserID, tokens domain.TokenService, cap int, regenPeriod time.Duration) *Ledger {
	return &Ledger{
		userID:      userID,
		tokens:      tokens,
		balance:     cap,
		cap:         cap,
		regenPeriod: regenPeriod,
		now:         time.Now,
	}
}

// CanAfford reports whether at least one token is available.
func (l *Ledger) CanAfford() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance > 0
}

// Reserve is the optimistic pre-check before a gated action. It does not
// mutate the balance.
func (l *Ledger) Reserve(action string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance <= 0 {
		return fmt.Errorf("%s: %w", action, domain.ErrInsufficientTokens)
	}
	return nil
}

// ConfirmSpend asks the token service to consume one token. On success the
// local balance drops by exactly one, the authoritative status is
// reconciled in, and the continuation runs once. On failure the balance is
// untouched and the continuation does not run.
func (l *Ledger) ConfirmSpend(ctx context.Context, action string, continuation func()) error {
	status, err := l.tokens.Spend(ctx, l.userID, action)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("token spend failed",
			"user_id", l.userID, "action", action, "error", err)
		if errors.Is(err, domain.ErrInsufficientTokens) {
			return fmt.Errorf("%s: %w", action, err)
		}
		return fmt.Errorf("%s: %w: %v", action, domain.ErrSpendRejected, err)
	}

	l.mu.Lock()
	if l.balance > 0 {
		l.balance--
	}
	l.reconcileLocked(status.Balance, status.NextRegenAt)
	l.mu.Unlock()

	if continuation != nil {
		continuation()
	}
	return nil
}

// Reconcile overwrites the mirror with server-authoritative values.
func (l *Ledger) Reconcile(balance int, nextRegenAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reconcileLocked(balance, nextRegenAt)
}

func (l *Ledger) reconcileLocked(balance int, nextRegenAt time.Time) {
	if balance < 0 {
		balance = 0
	}
	if balance > l.cap {
		balance = l.cap
	}
	l.balance = balance
	l.nextRegenAt = nextRegenAt
}

// RefreshStatus fetches the authoritative status and reconciles.
func (l *Ledger) RefreshStatus(ctx context.Context) error {
	status, err := l.tokens.Status(ctx, l.userID)
	if err != nil {
		return fmt.Errorf("fetch token status: %w", err)
	}
	l.Reconcile(status.Balance, status.NextRegenAt)
	return nil
}

// Balance returns the mirrored balance.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// RegenPeriod returns the configured regeneration period.
func (l *Ledger) RegenPeriod() time.Duration {
	return l.regenPeriod
}

// Status returns the mirrored status.
func (l *Ledger) Status() domain.TokenStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.TokenStatus{Balance: l.balance, NextRegenAt: l.nextRegenAt}
}

// RegenTick credits one token when the regeneration deadline has passed.
// Recomputing the deadline into the future makes the credit strictly a
// due -> not-due transition, so a high-frequency caller cannot double
// credit within one period.
func (l *Ledger) RegenTick() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.nextRegenAt.IsZero() || now.Before(l.nextRegenAt) {
		return
	}
	if l.balance < l.cap {
		l.balance++
	}
	if l.balance >= l.cap {
		l.nextRegenAt = time.Time{}
	} else {
		l.nextRegenAt = now.Add(l.regenPeriod)
	}
}

// StartRegen drives RegenTick in the background at a coarse interval until
// StopRegen is called.
func (l *Ledger) StartRegen(interval time.Duration) {
	l.mu.Lock()
	if l.regenStop != nil {
		l.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	l.regenStop = stop
	l.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				l.RegenTick()
			}
		}
	}()
}

// StopRegen stops the background regeneration check. Idempotent.
func (l *Ledger) StopRegen() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.regenStop != nil {
		close(l.regenStop)
		l.regenStop = nil
	}
}
