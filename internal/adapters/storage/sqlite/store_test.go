package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mindsprout/pal-agent/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "pal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestReportRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		report := &domain.Report{
			ID:        domain.ReportID(fmt.Sprintf("r%d", i)),
			SessionID: "s1",
			UserID:    "user-1",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Quiz:      domain.QuizAnswers{domain.DimHappiness: 4, domain.DimStress: 2},
			Summary: domain.NarrativeSections{
				Discussed: "a hard week at work",
				Insights:  "rest matters",
			},
			MessageCount: 5 + i,
		}
		if err := store.AppendReport(ctx, report); err != nil {
			t.Fatalf("append report %d: %v", i, err)
		}
	}

	all, err := store.ListReportsByUser(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}
	if !all[0].CreatedAt.Before(all[2].CreatedAt) {
		t.Fatal("reports not in chronological order")
	}
	if all[0].Quiz[domain.DimHappiness] != 4 {
		t.Fatalf("quiz lost in round trip: %+v", all[0].Quiz)
	}
	if all[0].Summary.Discussed != "a hard week at work" {
		t.Fatalf("summary lost in round trip: %+v", all[0].Summary)
	}

	// A limit keeps the newest rows, still oldest first.
	newest, err := store.ListReportsByUser(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(newest) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(newest))
	}
	if newest[0].MessageCount != 6 || newest[1].MessageCount != 7 {
		t.Fatalf("limit did not keep the newest rows: %d, %d", newest[0].MessageCount, newest[1].MessageCount)
	}

	other, err := store.ListReportsByUser(ctx, "someone-else", 0)
	if err != nil {
		t.Fatalf("list other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("reports leaked across users: %d", len(other))
	}
}

func TestJournalRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &domain.JournalEntry{
		ID:        "e1",
		UserID:    "user-1",
		Type:      domain.JournalDream,
		CreatedAt: time.Date(2026, 8, 2, 7, 30, 0, 0, time.UTC),
		Responses: map[string]string{"dreamDescription": "flying over the sea"},
	}
	if err := store.AppendJournalEntry(ctx, entry); err != nil {
		t.Fatalf("append entry: %v", err)
	}

	entries, err := store.ListJournalEntriesByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Responses["dreamDescription"] != "flying over the sea" {
		t.Fatalf("entry lost in round trip: %+v", entries)
	}

	insight := &domain.JournalInsight{
		EntryID:   "e1",
		UserID:    "user-1",
		Insight:   "water often stands for change",
		CreatedAt: time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC),
	}
	if err := store.AppendJournalInsight(ctx, insight); err != nil {
		t.Fatalf("append insight: %v", err)
	}
	insights, err := store.ListJournalInsightsByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	if len(insights) != 1 || insights[0].EntryID != "e1" {
		t.Fatalf("insight lost in round trip: %+v", insights)
	}
}

func TestGoalRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		goal := &domain.Goal{
			ID:        domain.GoalID(fmt.Sprintf("g%d", i)),
			UserID:    "user-1",
			Text:      fmt.Sprintf("goal %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.AppendGoal(ctx, goal); err != nil {
			t.Fatalf("append goal %d: %v", i, err)
		}
	}

	goals, err := store.ListGoalsByUser(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 3 || goals[0].Text != "goal 0" {
		t.Fatalf("goals lost in round trip: %+v", goals)
	}

	newest, err := store.ListGoalsByUser(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(newest) != 2 || newest[0].Text != "goal 1" || newest[1].Text != "goal 2" {
		t.Fatalf("limit did not keep the newest goals: %+v", newest)
	}
}

func TestTokenStateUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Unknown user reads as nil, meaning a fresh account.
	state, err := store.GetTokenState(ctx, "user-1")
	if err != nil {
		t.Fatalf("get fresh state: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil for unknown user, got %+v", state)
	}

	regenAt := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	put := &domain.TokenState{
		UserID:      "user-1",
		Balance:     2,
		NextRegenAt: regenAt,
		UpdatedAt:   regenAt.Add(-3 * time.Hour),
	}
	if err := store.PutTokenState(ctx, put); err != nil {
		t.Fatalf("put state: %v", err)
	}

	state, err = store.GetTokenState(ctx, "user-1")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Balance != 2 || !state.NextRegenAt.Equal(regenAt) {
		t.Fatalf("state lost in round trip: %+v", state)
	}

	// Upsert overwrites and a zero deadline stays zero.
	put.Balance = 3
	put.NextRegenAt = time.Time{}
	if err := store.PutTokenState(ctx, put); err != nil {
		t.Fatalf("second put: %v", err)
	}
	state, err = store.GetTokenState(ctx, "user-1")
	if err != nil {
		t.Fatalf("get updated state: %v", err)
	}
	if state.Balance != 3 || !state.NextRegenAt.IsZero() {
		t.Fatalf("upsert did not overwrite: %+v", state)
	}
}
