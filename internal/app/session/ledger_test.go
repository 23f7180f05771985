package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mindsprout/pal-agent/internal/domain"
)

type fakeTokenService struct {
	mu       sync.Mutex
	balance  int
	regenAt  time.Time
	spendErr error
	spends   int
}

func (f *fakeTokenService) Spend(_ context.Context, _ domain.UserID, _ string) (domain.TokenStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spends++
	if f.spendErr != nil {
		return domain.TokenStatus{}, f.spendErr
	}
	f.balance--
	return domain.TokenStatus{Balance: f.balance, NextRegenAt: f.regenAt}, nil
}

func (f *fakeTokenService) Status(_ context.Context, _ domain.UserID) (domain.TokenStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.TokenStatus{Balance: f.balance, NextRegenAt: f.regenAt}, nil
}

func TestLedgerConfirmSpendRunsContinuationOnce(t *testing.T) {
	svc := &fakeTokenService{balance: 1}
	l := NewLedger("user-1", svc, 3, 3*time.Hour)
	l.Reconcile(1, time.Time{})

	ran := 0
	if err := l.ConfirmSpend(context.Background(), "complete_session", func() { ran++ }); err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if ran != 1 {
		t.Fatalf("continuation ran %d times, expected 1", ran)
	}
	if l.Balance() != 0 {
		t.Fatalf("expected balance 0, got %d", l.Balance())
	}
	if svc.spends != 1 {
		t.Fatalf("expected 1 service spend, got %d", svc.spends)
	}
}

func TestLedgerConfirmSpendFailureLeavesBalance(t *testing.T) {
	svc := &fakeTokenService{balance: 1, spendErr: errors.New("backend down")}
	l := NewLedger("user-1", svc, 3, 3*time.Hour)
	l.Reconcile(1, time.Time{})

	ran := false
	err := l.ConfirmSpend(context.Background(), "complete_session", func() { ran = true })
	if err == nil {
		t.Fatal("expected spend error")
	}
	if ran {
		t.Fatal("continuation ran despite rejected spend")
	}
	if l.Balance() != 1 {
		t.Fatalf("expected balance unchanged at 1, got %d", l.Balance())
	}
}

func TestLedgerReserve(t *testing.T) {
	l := NewLedger("user-1", &fakeTokenService{}, 3, 3*time.Hour)

	if err := l.Reserve("start_session"); err != nil {
		t.Fatalf("reserve with tokens failed: %v", err)
	}

	l.Reconcile(0, time.Now().Add(time.Hour))
	err := l.Reserve("start_session")
	if !errors.Is(err, domain.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
	if l.Balance() != 0 {
		t.Fatalf("reserve mutated balance: %d", l.Balance())
	}
}

func TestLedgerReconcileWins(t *testing.T) {
	l := NewLedger("user-1", &fakeTokenService{}, 3, 3*time.Hour)

	l.Reconcile(7, time.Time{}) // above cap clamps
	if l.Balance() != 3 {
		t.Fatalf("expected clamp to cap 3, got %d", l.Balance())
	}
	l.Reconcile(-2, time.Time{})
	if l.Balance() != 0 {
		t.Fatalf("expected clamp to 0, got %d", l.Balance())
	}
}

func TestLedgerRegenTickCreditsOncePerPeriod(t *testing.T) {
	l := NewLedger("user-1", &fakeTokenService{}, 3, 3*time.Hour)

	clock := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Reconcile(0, clock.Add(-time.Minute)) // deadline already due

	// A burst of ticks within one period credits exactly one token.
	for i := 0; i < 5; i++ {
		l.RegenTick()
	}
	if l.Balance() != 1 {
		t.Fatalf("expected 1 token after burst, got %d", l.Balance())
	}
	status := l.Status()
	if !status.NextRegenAt.Equal(clock.Add(3 * time.Hour)) {
		t.Fatalf("expected deadline pushed one period out, got %v", status.NextRegenAt)
	}

	// The next period credits again.
	clock = clock.Add(3*time.Hour + time.Second)
	l.RegenTick()
	if l.Balance() != 2 {
		t.Fatalf("expected 2 tokens, got %d", l.Balance())
	}

	// Reaching the cap clears the deadline entirely.
	clock = clock.Add(3*time.Hour + time.Second)
	l.RegenTick()
	if l.Balance() != 3 {
		t.Fatalf("expected full cap, got %d", l.Balance())
	}
	if !l.Status().NextRegenAt.IsZero() {
		t.Fatalf("expected zero deadline at cap, got %v", l.Status().NextRegenAt)
	}

	// At cap nothing regenerates.
	clock = clock.Add(24 * time.Hour)
	l.RegenTick()
	if l.Balance() != 3 {
		t.Fatalf("balance grew past cap: %d", l.Balance())
	}
}

func TestLedgerRegenTickNotDue(t *testing.T) {
	l := NewLedger("user-1", &fakeTokenService{}, 3, 3*time.Hour)
	l.Reconcile(1, time.Now().Add(time.Hour))
	l.RegenTick()
	if l.Balance() != 1 {
		t.Fatalf("tick before deadline changed balance: %d", l.Balance())
	}
}
