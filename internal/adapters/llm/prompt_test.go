package llm

import (
	"strings"
	"testing"

	"github.com/mindsprout/pal-agent/internal/domain"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  \n{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildReportUserContent(t *testing.T) {
	transcript := []domain.ChatMessage{
		{Sender: domain.SenderPal, Text: "welcome"},
		{Sender: domain.SenderUser, Text: "rough day"},
	}
	quiz := domain.QuizAnswers{}
	for _, d := range domain.Dimensions {
		quiz[d] = 2
	}

	content := buildReportUserContent(transcript, quiz)
	if !strings.Contains(content, "pal: welcome") || !strings.Contains(content, "user: rough day") {
		t.Fatalf("transcript missing from prompt:\n%s", content)
	}
	for _, d := range domain.Dimensions {
		if !strings.Contains(content, string(d)+": 2/5") {
			t.Fatalf("quiz dimension %s missing from prompt:\n%s", d, content)
		}
	}
}

func TestBuildInsightUserContentSkipsBlankResponses(t *testing.T) {
	entry := &domain.JournalEntry{
		Type: domain.JournalDaily,
		Responses: map[string]string{
			"highlights": "a long walk in the rain",
			"learned":    "   ",
		},
	}
	content := buildInsightUserContent(entry)
	if !strings.Contains(content, "a long walk in the rain") {
		t.Fatalf("filled response missing:\n%s", content)
	}
	if strings.Contains(content, "What I Learned About Myself") {
		t.Fatalf("blank response rendered a heading:\n%s", content)
	}
}
