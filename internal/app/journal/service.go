package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindsprout/pal-agent/internal/app/session"
	"github.com/mindsprout/pal-agent/internal/domain"
	"github.com/mindsprout/pal-agent/internal/observability"
)

// Service holds the logic for journal entries and their generated
// insights. Insight generation is a token-gated action.
type Service struct {
	store    domain.JournalStore
	insights domain.InsightWriter
	now      func() time.Time
}

func NewService(store domain.JournalStore, insights domain.InsightWriter) *Service {
	return &Service{
		store:    store,
		insights: insights,
		now:      time.Now,
	}
}

// SaveEntry validates and persists one set of prompt responses. At least
// one response must be non-empty.
func (s *Service) SaveEntry(
	ctx context.Context,
	userID domain.UserID,
	entryType domain.JournalType,
	responses map[string]string,
) (*domain.JournalEntry, error) {
	if _, ok := domain.JournalPrompts[entryType]; !ok {
		return nil, fmt.Errorf("unknown journal type %q", entryType)
	}

	filled := false
	for _, v := range responses {
		if strings.TrimSpace(v) != "" {
			filled = true
			break
		}
	}
	if !filled {
		return nil, fmt.Errorf("journal entry needs at least one response")
	}

	entry := &domain.JournalEntry{
		ID:        domain.JournalEntryID(uuid.NewString()),
		UserID:    userID,
		Type:      entryType,
		CreatedAt: s.now(),
		Responses: responses,
	}
	if err := s.store.AppendJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("save journal entry: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("journal entry saved",
		"user_id", userID, "type", entryType)
	return entry, nil
}

// ListEntries returns the last limit entries for a user.
func (s *Service) ListEntries(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListJournalEntriesByUser(ctx, userID, limit)
}

// GenerateInsight produces and persists a reflection for one entry,
// gated by the ledger: the insight is written only inside a confirmed
// spend, and a rejected spend writes nothing.
func (s *Service) GenerateInsight(
	ctx context.Context,
	ledger *session.Ledger,
	entry *domain.JournalEntry,
) (*domain.JournalInsight, error) {
	if err := ledger.Reserve("journal_insight"); err != nil {
		return nil, err
	}

	var (
		insight  *domain.JournalInsight
		innerErr error
	)
	err := ledger.ConfirmSpend(ctx, "journal_insight", func() {
		text, err := s.insights.ComposeInsight(ctx, entry)
		if err != nil {
			innerErr = fmt.Errorf("compose insight: %w", err)
			return
		}
		candidate := &domain.JournalInsight{
			EntryID:   entry.ID,
			UserID:    entry.UserID,
			Insight:   text,
			CreatedAt: s.now(),
		}
		if err := s.store.AppendJournalInsight(ctx, candidate); err != nil {
			innerErr = fmt.Errorf("save insight: %w", err)
			return
		}
		insight = candidate
	})
	if err != nil {
		return nil, err
	}
	if innerErr != nil {
		// Token already spent; the next reconcile reflects whatever the
		// server decides about the failed generation.
		observability.LoggerFromContext(ctx).Error("insight generation failed after spend",
			"user_id", entry.UserID, "error", innerErr)
		return nil, innerErr
	}
	return insight, nil
}

// ListInsights returns the last limit insights for a user.
func (s *Service) ListInsights(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalInsight, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListJournalInsightsByUser(ctx, userID, limit)
}
