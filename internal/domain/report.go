package domain

import "context"

// NarrativeSections are the five generated summaries shown in the Reflect tab.
type NarrativeSections struct {
	Discussed        string `json:"discussed"`
	ThoughtsFeelings string `json:"thoughtsFeelings"`
	Insights         string `json:"insights"`
	MoodReflection   string `json:"moodReflection"`
	Recommendations  string `json:"recommendations"`
}

// Report is the end-of-session artifact: the pre-chat quiz plus the
// generated narrative. One report per completed session.
type Report struct {
	ID           ReportID          `json:"id"`
	SessionID    SessionID         `json:"session_id"`
	UserID       UserID            `json:"user_id"`
	CreatedAt    Timestamp         `json:"created_at"`
	Quiz         QuizAnswers       `json:"quiz"`
	Summary      NarrativeSections `json:"summary"`
	MessageCount int               `json:"message_count"`
}

// ReportStore persists session reports.
type ReportStore interface {
	AppendReport(ctx context.Context, report *Report) error
	ListReportsByUser(ctx context.Context, userID UserID, limit int) ([]*Report, error)
}
