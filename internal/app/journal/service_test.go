package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mindsprout/pal-agent/internal/adapters/storage/memory"
	"github.com/mindsprout/pal-agent/internal/app/session"
	"github.com/mindsprout/pal-agent/internal/domain"
)

type fakeTokenService struct {
	balance  int
	spendErr error
	spends   int
}

func (f *fakeTokenService) Spend(_ context.Context, _ domain.UserID, _ string) (domain.TokenStatus, error) {
	f.spends++
	if f.spendErr != nil {
		return domain.TokenStatus{}, f.spendErr
	}
	f.balance--
	return domain.TokenStatus{Balance: f.balance}, nil
}

func (f *fakeTokenService) Status(_ context.Context, _ domain.UserID) (domain.TokenStatus, error) {
	return domain.TokenStatus{Balance: f.balance}, nil
}

type fakeInsightWriter struct {
	text  string
	err   error
	calls int
}

func (f *fakeInsightWriter) ComposeInsight(_ context.Context, _ *domain.JournalEntry) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newLedger(balance int) (*session.Ledger, *fakeTokenService) {
	svc := &fakeTokenService{balance: balance}
	l := session.NewLedger("user-1", svc, 3, 3*time.Hour)
	l.Reconcile(balance, time.Time{})
	return l, svc
}

func TestSaveEntryValidation(t *testing.T) {
	svc := NewService(memory.NewJournalStore(), &fakeInsightWriter{})
	ctx := context.Background()

	if _, err := svc.SaveEntry(ctx, "user-1", "gratitude", map[string]string{"q": "a"}); err == nil {
		t.Fatal("expected error for unknown journal type")
	}
	if _, err := svc.SaveEntry(ctx, "user-1", domain.JournalDaily, map[string]string{"q": "  \n"}); err == nil {
		t.Fatal("expected error for all-blank responses")
	}
}

func TestSaveAndListEntries(t *testing.T) {
	store := memory.NewJournalStore()
	svc := NewService(store, &fakeInsightWriter{})
	ctx := context.Background()

	entry, err := svc.SaveEntry(ctx, "user-1", domain.JournalDream, map[string]string{
		"Describe your dream": "I was flying over the sea",
	})
	if err != nil {
		t.Fatalf("save entry: %v", err)
	}
	if entry.ID == "" || entry.CreatedAt.IsZero() {
		t.Fatalf("entry not stamped: %+v", entry)
	}

	entries, err := svc.ListEntries(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != domain.JournalDream {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestGenerateInsightSpendsOneToken(t *testing.T) {
	store := memory.NewJournalStore()
	writer := &fakeInsightWriter{text: "You sound ready for a calmer week."}
	svc := NewService(store, writer)
	ledger, tokens := newLedger(2)
	ctx := context.Background()

	entry, err := svc.SaveEntry(ctx, "user-1", domain.JournalFreestyle, map[string]string{
		"Write freely": "long week, finally some rest",
	})
	if err != nil {
		t.Fatalf("save entry: %v", err)
	}

	insight, err := svc.GenerateInsight(ctx, ledger, entry)
	if err != nil {
		t.Fatalf("generate insight: %v", err)
	}
	if insight.Insight != writer.text || insight.EntryID != entry.ID {
		t.Fatalf("unexpected insight: %+v", insight)
	}
	if tokens.spends != 1 {
		t.Fatalf("expected one spend, got %d", tokens.spends)
	}
	if ledger.Balance() != 1 {
		t.Fatalf("expected balance 1, got %d", ledger.Balance())
	}

	saved, err := svc.ListInsights(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected one persisted insight, got %d", len(saved))
	}
}

func TestGenerateInsightWithoutTokens(t *testing.T) {
	store := memory.NewJournalStore()
	writer := &fakeInsightWriter{text: "unused"}
	svc := NewService(store, writer)
	ledger, tokens := newLedger(0)

	entry := &domain.JournalEntry{ID: "e1", UserID: "user-1", Type: domain.JournalDaily}
	_, err := svc.GenerateInsight(context.Background(), ledger, entry)
	if !errors.Is(err, domain.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
	if writer.calls != 0 {
		t.Fatal("insight composed despite empty balance")
	}
	if tokens.spends != 0 {
		t.Fatal("spend attempted despite failed reserve")
	}
}

func TestGenerateInsightRejectedSpendWritesNothing(t *testing.T) {
	store := memory.NewJournalStore()
	writer := &fakeInsightWriter{text: "unused"}
	svc := NewService(store, writer)

	entry := &domain.JournalEntry{ID: "e1", UserID: "user-1", Type: domain.JournalDaily}
	ledgerSvc := &fakeTokenService{balance: 1, spendErr: errors.New("backend down")}
	ledger := session.NewLedger("user-1", ledgerSvc, 3, 3*time.Hour)
	ledger.Reconcile(1, time.Time{})

	_, err := svc.GenerateInsight(context.Background(), ledger, entry)
	if err == nil {
		t.Fatal("expected spend error")
	}
	if writer.calls != 0 {
		t.Fatal("insight composed despite rejected spend")
	}
	saved, _ := svc.ListInsights(context.Background(), "user-1", 0)
	if len(saved) != 0 {
		t.Fatalf("insight persisted despite rejected spend: %d", len(saved))
	}
	if ledger.Balance() != 1 {
		t.Fatalf("balance changed on rejected spend: %d", ledger.Balance())
	}
}
