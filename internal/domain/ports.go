package domain

import (
	"context"
	"time"
)

// ChatClient is the remote assistant the session talks to. The full
// transcript so far goes with every call so the assistant has context.
type ChatClient interface {
	GenerateReply(ctx context.Context, text string, transcript []ChatMessage) (string, time.Time, error)
}

// ReportWriter turns a frozen transcript and the pre-chat quiz into the
// end-of-session report.
type ReportWriter interface {
	ComposeReport(ctx context.Context, transcript []ChatMessage, quiz QuizAnswers) (*Report, error)
}

// InsightWriter generates a reflection for a saved journal entry.
type InsightWriter interface {
	ComposeInsight(ctx context.Context, entry *JournalEntry) (string, error)
}
