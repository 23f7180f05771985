package memory

import (
	"context"
	"sync"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// ReportStore is a simple in-memory implementation of domain.ReportStore.
// It is NOT persistent and is only suitable for development / local mode.
type ReportStore struct {
	mu       sync.RWMutex
	byUserID map[domain.UserID][]*domain.Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{
		byUserID: make(map[domain.UserID][]*domain.Report),
	}
}

func (s *ReportStore) AppendReport(_ context.Context, report *domain.Report) error {
	if report == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUserID[report.UserID] = append(s.byUserID[report.UserID], report)
	return nil
}

// ListReportsByUser returns the last limit reports in creation order.
// If limit <= 0, returns all.
func (s *ReportStore) ListReportsByUser(_ context.Context, userID domain.UserID, limit int) ([]*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := s.byUserID[userID]
	if limit > 0 && len(reports) > limit {
		reports = reports[len(reports)-limit:]
	}
	out := make([]*domain.Report, len(reports))
	copy(out, reports)
	return out, nil
}
