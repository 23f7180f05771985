package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// MockClient is a canned stand-in for local development and tests. It
// implements the same three collaborator interfaces as VertexClient.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) GenerateReply(
	_ context.Context,
	userMessage string,
	_ []domain.ChatMessage,
) (string, time.Time, error) {
	reply := fmt.Sprintf("I hear you. You said %q. Tell me a little more about how that feels.", userMessage)
	return reply, time.Now(), nil
}

func (m *MockClient) ComposeReport(
	_ context.Context,
	transcript []domain.ChatMessage,
	_ domain.QuizAnswers,
) (*domain.Report, error) {
	return &domain.Report{
		Summary: domain.NarrativeSections{
			Discussed:        fmt.Sprintf("We exchanged %d messages about what was on your mind.", len(transcript)),
			ThoughtsFeelings: "You shared openly about how today has felt.",
			Insights:         "Naming what you feel is already a step toward understanding it.",
			MoodReflection:   "Your quiz ratings suggest a mixed day; the chat seemed to steady things.",
			Recommendations:  "Take a short walk, drink some water, and be kind to yourself this evening.",
		},
	}, nil
}

func (m *MockClient) ComposeInsight(_ context.Context, entry *domain.JournalEntry) (string, error) {
	return fmt.Sprintf("Your %s entry shows real reflection. Notice what repeats across your days, and give yourself credit for writing it down.", entry.Type), nil
}
