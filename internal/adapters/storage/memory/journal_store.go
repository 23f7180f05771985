package memory

import (
	"context"
	"sync"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// JournalStore is a simple in-memory implementation of domain.JournalStore.
type JournalStore struct {
	mu             sync.RWMutex
	entriesByUser  map[domain.UserID][]*domain.JournalEntry
	insightsByUser map[domain.UserID][]*domain.JournalInsight
}

func NewJournalStore() *JournalStore {
	return &JournalStore{
		entriesByUser:  make(map[domain.UserID][]*domain.JournalEntry),
		insightsByUser: make(map[domain.UserID][]*domain.JournalInsight),
	}
}

func (s *JournalStore) AppendJournalEntry(_ context.Context, entry *domain.JournalEntry) error {
	if entry == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entriesByUser[entry.UserID] = append(s.entriesByUser[entry.UserID], entry)
	return nil
}

func (s *JournalStore) ListJournalEntriesByUser(_ context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entriesByUser[userID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]*domain.JournalEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *JournalStore) AppendJournalInsight(_ context.Context, insight *domain.JournalInsight) error {
	if insight == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insightsByUser[insight.UserID] = append(s.insightsByUser[insight.UserID], insight)
	return nil
}

func (s *JournalStore) ListJournalInsightsByUser(_ context.Context, userID domain.UserID, limit int) ([]*domain.JournalInsight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	insights := s.insightsByUser[userID]
	if limit > 0 && len(insights) > limit {
		insights = insights[len(insights)-limit:]
	}
	out := make([]*domain.JournalInsight, len(insights))
	copy(out, insights)
	return out, nil
}
