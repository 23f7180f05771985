package firestore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// Store implements domain.ReportStore, domain.JournalStore, and
// domain.TokenStore on Firestore. One store, three interfaces.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given GCP project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) reportsCol() *firestore.CollectionRef {
	return s.client.Collection("reports")
}

func (s *Store) journalCol() *firestore.CollectionRef {
	return s.client.Collection("journal_entries")
}

func (s *Store) insightsCol() *firestore.CollectionRef {
	return s.client.Collection("journal_insights")
}

func (s *Store) goalsCol() *firestore.CollectionRef {
	return s.client.Collection("goals")
}

func (s *Store) tokenDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("tokens").Doc(string(userID))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type reportDoc struct {
	SessionID    string         `firestore:"session_id"`
	UserID       string         `firestore:"user_id"`
	CreatedAt    time.Time      `firestore:"created_at"`
	Quiz         map[string]int `firestore:"quiz"`
	Summary      summaryDoc     `firestore:"summary"`
	MessageCount int            `firestore:"message_count"`
}

type summaryDoc struct {
	Discussed        string `firestore:"discussed"`
	ThoughtsFeelings string `firestore:"thoughts_feelings"`
	Insights         string `firestore:"insights"`
	MoodReflection   string `firestore:"mood_reflection"`
	Recommendations  string `firestore:"recommendations"`
}

type journalEntryDoc struct {
	UserID    string            `firestore:"user_id"`
	Type      string            `firestore:"type"`
	CreatedAt time.Time         `firestore:"created_at"`
	Responses map[string]string `firestore:"responses"`
}

type insightDoc struct {
	EntryID   string    `firestore:"entry_id"`
	UserID    string    `firestore:"user_id"`
	Insight   string    `firestore:"insight"`
	CreatedAt time.Time `firestore:"created_at"`
}

type goalDoc struct {
	UserID    string    `firestore:"user_id"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"created_at"`
}

type tokenStateDoc struct {
	Balance     int       `firestore:"balance"`
	NextRegenAt time.Time `firestore:"next_regen_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

// ─────────────────────────────────────────
// ReportStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendReport(ctx context.Context, report *domain.Report) error {
	doc := reportDoc{
		SessionID:    string(report.SessionID),
		UserID:       string(report.UserID),
		CreatedAt:    report.CreatedAt,
		Quiz:         quizToDoc(report.Quiz),
		Summary:      summaryToDoc(report.Summary),
		MessageCount: report.MessageCount,
	}

	_, err := s.reportsCol().Doc(string(report.ID)).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendReport: %w", err)
	}
	return nil
}

func (s *Store) ListReportsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Report, error) {
	// A positive limit keeps the newest rows; they are reversed below so
	// the result stays chronological, like the memory and sqlite stores.
	q := s.reportsCol().Where("user_id", "==", string(userID)).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = s.reportsCol().Where("user_id", "==", string(userID)).
			OrderBy("created_at", firestore.Desc).Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Report
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListReportsByUser: %w", err)
		}

		var doc reportDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode reportDoc: %w", err)
		}

		out = append(out, &domain.Report{
			ID:           domain.ReportID(snap.Ref.ID),
			SessionID:    domain.SessionID(doc.SessionID),
			UserID:       userID,
			CreatedAt:    doc.CreatedAt,
			Quiz:         quizFromDoc(doc.Quiz),
			Summary:      summaryFromDoc(doc.Summary),
			MessageCount: doc.MessageCount,
		})
	}
	if limit > 0 {
		slices.Reverse(out)
	}
	return out, nil
}

// ─────────────────────────────────────────
// JournalStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	doc := journalEntryDoc{
		UserID:    string(entry.UserID),
		Type:      string(entry.Type),
		CreatedAt: entry.CreatedAt,
		Responses: entry.Responses,
	}

	_, err := s.journalCol().Doc(string(entry.ID)).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendJournalEntry: %w", err)
	}
	return nil
}

func (s *Store) ListJournalEntriesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	q := s.journalCol().Where("user_id", "==", string(userID)).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = s.journalCol().Where("user_id", "==", string(userID)).
			OrderBy("created_at", firestore.Desc).Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.JournalEntry
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListJournalEntriesByUser: %w", err)
		}

		var doc journalEntryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode journalEntryDoc: %w", err)
		}

		out = append(out, &domain.JournalEntry{
			ID:        domain.JournalEntryID(snap.Ref.ID),
			UserID:    userID,
			Type:      domain.JournalType(doc.Type),
			CreatedAt: doc.CreatedAt,
			Responses: doc.Responses,
		})
	}
	if limit > 0 {
		slices.Reverse(out)
	}
	return out, nil
}

func (s *Store) AppendJournalInsight(ctx context.Context, insight *domain.JournalInsight) error {
	doc := insightDoc{
		EntryID:   string(insight.EntryID),
		UserID:    string(insight.UserID),
		Insight:   insight.Insight,
		CreatedAt: insight.CreatedAt,
	}

	_, _, err := s.insightsCol().Add(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendJournalInsight: %w", err)
	}
	return nil
}

func (s *Store) ListJournalInsightsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalInsight, error) {
	q := s.insightsCol().Where("user_id", "==", string(userID)).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = s.insightsCol().Where("user_id", "==", string(userID)).
			OrderBy("created_at", firestore.Desc).Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.JournalInsight
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListJournalInsightsByUser: %w", err)
		}

		var doc insightDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode insightDoc: %w", err)
		}

		out = append(out, &domain.JournalInsight{
			EntryID:   domain.JournalEntryID(doc.EntryID),
			UserID:    userID,
			Insight:   doc.Insight,
			CreatedAt: doc.CreatedAt,
		})
	}
	if limit > 0 {
		slices.Reverse(out)
	}
	return out, nil
}

// ─────────────────────────────────────────
// GoalStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendGoal(ctx context.Context, goal *domain.Goal) error {
	doc := goalDoc{
		UserID:    string(goal.UserID),
		Text:      goal.Text,
		CreatedAt: goal.CreatedAt,
	}

	_, err := s.goalsCol().Doc(string(goal.ID)).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendGoal: %w", err)
	}
	return nil
}

func (s *Store) ListGoalsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Goal, error) {
	q := s.goalsCol().Where("user_id", "==", string(userID)).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = s.goalsCol().Where("user_id", "==", string(userID)).
			OrderBy("created_at", firestore.Desc).Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Goal
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListGoalsByUser: %w", err)
		}

		var doc goalDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode goalDoc: %w", err)
		}

		out = append(out, &domain.Goal{
			ID:        domain.GoalID(snap.Ref.ID),
			UserID:    userID,
			Text:      doc.Text,
			CreatedAt: doc.CreatedAt,
		})
	}
	if limit > 0 {
		slices.Reverse(out)
	}
	return out, nil
}

// ─────────────────────────────────────────
// TokenStore implementation
// ─────────────────────────────────────────

func (s *Store) GetTokenState(ctx context.Context, userID domain.UserID) (*domain.TokenState, error) {
	snap, err := s.tokenDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore GetTokenState: %w", err)
	}

	var doc tokenStateDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetTokenState decode: %w", err)
	}

	return &domain.TokenState{
		UserID:      userID,
		Balance:     doc.Balance,
		NextRegenAt: doc.NextRegenAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func (s *Store) PutTokenState(ctx context.Context, state *domain.TokenState) error {
	doc := tokenStateDoc{
		Balance:     state.Balance,
		NextRegenAt: state.NextRegenAt,
		UpdatedAt:   state.UpdatedAt,
	}

	_, err := s.tokenDoc(state.UserID).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore PutTokenState: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// Doc conversions
// ─────────────────────────────────────────

func quizToDoc(quiz domain.QuizAnswers) map[string]int {
	out := make(map[string]int, len(quiz))
	for dim, v := range quiz {
		out[string(dim)] = v
	}
	return out
}

func quizFromDoc(raw map[string]int) domain.QuizAnswers {
	out := make(domain.QuizAnswers, len(raw))
	for k, v := range raw {
		out[domain.Dimension(k)] = v
	}
	return out
}

func summaryToDoc(s domain.NarrativeSections) summaryDoc {
	return summaryDoc{
		Discussed:        s.Discussed,
		ThoughtsFeelings: s.ThoughtsFeelings,
		Insights:         s.Insights,
		MoodReflection:   s.MoodReflection,
		Recommendations:  s.Recommendations,
	}
}

func summaryFromDoc(d summaryDoc) domain.NarrativeSections {
	return domain.NarrativeSections{
		Discussed:        d.Discussed,
		ThoughtsFeelings: d.ThoughtsFeelings,
		Insights:         d.Insights,
		MoodReflection:   d.MoodReflection,
		Recommendations:  d.Recommendations,
	}
}
