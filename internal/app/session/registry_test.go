package session

import (
	"testing"
	"time"

	"github.com/mindsprout/pal-agent/internal/adapters/storage/memory"
	"github.com/mindsprout/pal-agent/internal/domain"
)

func newRegistryFixture(ttl time.Duration) *Registry {
	return NewRegistry(ttl, func(userID domain.UserID) *Machine {
		ledger := NewLedger(userID, &fakeTokenService{balance: 3}, 3, 3*time.Hour)
		ledger.Reconcile(3, time.Time{})
		return NewMachine(userID, ledger, &fakeChatClient{reply: "ok"}, &fakeReportWriter{}, memory.NewReportStore(),
			Config{TickInterval: 2 * time.Millisecond, BreatheStart: 2}, func(string) {})
	})
}

func TestRegistryOneMachinePerUser(t *testing.T) {
	r := newRegistryFixture(time.Minute)

	a := r.GetOrCreate("user-1")
	b := r.GetOrCreate("user-1")
	if a != b {
		t.Fatal("expected the same machine for repeated lookups")
	}
	if other := r.GetOrCreate("user-2"); other == a {
		t.Fatal("users share a machine")
	}

	if _, ok := r.Get("user-1"); !ok {
		t.Fatal("live machine not found")
	}
	if _, ok := r.Get("ghost"); ok {
		t.Fatal("found a machine that was never created")
	}
}

func TestRegistryDropResetsMachine(t *testing.T) {
	r := newRegistryFixture(time.Minute)

	m := r.GetOrCreate("user-1")
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	r.Drop("user-1")
	if _, ok := r.Get("user-1"); ok {
		t.Fatal("machine survived drop")
	}
	if m.Phase() != domain.PhaseIdle {
		t.Fatalf("dropped machine still mid-session: %s", m.Phase())
	}
}
