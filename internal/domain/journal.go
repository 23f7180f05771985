package domain

import (
	"context"
	"time"
)

// JournalEntryID identifies a journal entry
type JournalEntryID string

// JournalType selects which prompt set a journal entry answers.
type JournalType string

const (
	JournalDaily     JournalType = "daily"
	JournalDream     JournalType = "dream"
	JournalFreestyle JournalType = "freestyle"
)

// JournalPrompt is one writing prompt inside a journal type.
type JournalPrompt struct {
	Heading    string `json:"heading"`
	Subheading string `json:"subheading"`
	Key        string `json:"key"`
}

// JournalPrompts holds the fixed prompt sets per journal type.
var JournalPrompts = map[JournalType][]JournalPrompt{
	JournalDaily: {
		{Heading: "Highlights of My Day", Subheading: "Reflect on the moments that brought you joy or satisfaction.", Key: "highlights"},
		{Heading: "What I Learned About Myself", Subheading: "Consider any new insights or realizations you had.", Key: "learned"},
		{Heading: "Challenges I Faced", Subheading: "Analyze your reactions and what you can learn from them.", Key: "challenges"},
		{Heading: "Emotions I Experienced", Subheading: "Explore the feelings you had and their sources.", Key: "emotions"},
	},
	JournalDream: {
		{Heading: "My Dream Last Night", Subheading: "Capture the key components of your dream, including characters and settings.", Key: "dreamDescription"},
		{Heading: "Emotions in the Dream", Subheading: "Reflect on how the dream made you feel and what that might signify.", Key: "dreamEmotions"},
		{Heading: "Recurring Themes or Symbols", Subheading: "Identify any patterns that might connect to your waking life.", Key: "themes"},
		{Heading: "Which part of the dream stands out the most?", Subheading: "Focus on the most vivid or impactful moment and why it resonates.", Key: "standout"},
	},
	JournalFreestyle: {
		{Heading: "My Thoughts", Subheading: "Write whatever is on your mind, no structure needed.", Key: "thoughts"},
	},
}

// JournalEntry is one saved set of prompt responses.
type JournalEntry struct {
	ID        JournalEntryID    `json:"id"`
	UserID    UserID            `json:"user_id"`
	Type      JournalType       `json:"type"`
	CreatedAt time.Time         `json:"created_at"`
	Responses map[string]string `json:"responses"`
}

// JournalInsight is a generated reflection on a single journal entry.
// Generating one is a token-gated action.
type JournalInsight struct {
	EntryID   JournalEntryID `json:"entry_id"`
	UserID    UserID         `json:"user_id"`
	Insight   string         `json:"insight"`
	CreatedAt time.Time      `json:"created_at"`
}

// JournalStore persists journal entries and their insights.
type JournalStore interface {
	AppendJournalEntry(ctx context.Context, entry *JournalEntry) error
	ListJournalEntriesByUser(ctx context.Context, userID UserID, limit int) ([]*JournalEntry, error)
	AppendJournalInsight(ctx context.Context, insight *JournalInsight) error
	ListJournalInsightsByUser(ctx context.Context, userID UserID, limit int) ([]*JournalInsight, error)
}
