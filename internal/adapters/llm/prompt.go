package llm

import (
	"fmt"
	"strings"

	"github.com/mindsprout/pal-agent/internal/domain"
)

const chatSystemPrompt = `
You are "Pal", a warm companion inside a mental-wellness journaling app.
The user is in a short, timed chat session that began with a five-question
mood quiz and a breathing moment.

Your role:
- Listen with empathy and without judgment.
- Help the user name what they feel and what they might need right now.
- You are NOT a therapist, doctor, or emergency service and you do NOT
  give medical or psychiatric diagnoses.

Style:
- Answer in the SAME LANGUAGE as the user.
- Be concise: a few short paragraphs at most.
- Reflect back what you understood before suggesting anything.
- Ask one gentle follow-up question, not more.

Boundaries and safety:
- If the user mentions self-harm or suicide, encourage them to seek
  immediate help from local emergency services or a trusted person.
- Make it clear you cannot replace professional mental health care.
- Never give instructions on how to self-harm or harm others.
`

const reportSystemPrompt = `
You are "Pal", summarizing a finished mental-wellness chat session.
Given the transcript and the user's pre-chat mood quiz (five dimensions
rated 1-5), write the session report.

Respond with ONLY a JSON object, no prose and no code fences, with exactly
these string fields:
  "discussed"        - what the conversation covered
  "thoughtsFeelings" - the user's thoughts and feelings as expressed
  "insights"         - insights uncovered during the chat
  "moodReflection"   - a reflection connecting the quiz ratings to the chat
  "recommendations"  - 2-3 small, kind, realistic suggestions

Each field is 2-4 sentences, addressed to the user as "you".
`

const insightSystemPrompt = `
You are "Pal", reflecting on one journal entry from a mental-wellness app.
Given the entry's prompt responses, write a single short insight (3-6
sentences) addressed to the user as "you": name a pattern or feeling you
notice and offer one gentle suggestion. Plain text only.
`

// renderTranscript flattens messages into "sender: text" lines for the
// report prompt.
func renderTranscript(transcript []domain.ChatMessage) string {
	var b strings.Builder
	for _, msg := range transcript {
		role := "user"
		if msg.Sender == domain.SenderPal {
			role = "pal"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(msg.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func renderQuiz(quiz domain.QuizAnswers) string {
	var b strings.Builder
	for _, d := range domain.Dimensions {
		fmt.Fprintf(&b, "%s: %d/5\n", d, quiz[d])
	}
	return b.String()
}

func buildReportUserContent(transcript []domain.ChatMessage, quiz domain.QuizAnswers) string {
	var b strings.Builder
	b.WriteString("Pre-chat mood quiz:\n")
	b.WriteString(renderQuiz(quiz))
	b.WriteString("\nTranscript:\n")
	b.WriteString(renderTranscript(transcript))
	return b.String()
}

func buildInsightUserContent(entry *domain.JournalEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Journal type: %s\n\n", entry.Type)
	for _, prompt := range domain.JournalPrompts[entry.Type] {
		response := strings.TrimSpace(entry.Responses[prompt.Key])
		if response == "" {
			continue
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", prompt.Heading, response)
	}
	return b.String()
}
