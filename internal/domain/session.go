package domain

// ChatMessage is one exchanged message inside a guided session.
type ChatMessage struct {
	ID        MessageID `json:"id"`
	SessionID SessionID `json:"session_id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	SentAt    Timestamp `json:"sent_at"`
}

// GuidedSession is the record of one quiz -> breathe -> chat -> report cycle.
// The live state (countdowns, transcript) is owned by the session machine;
// this struct is what stores and the HTTP surface see.
type GuidedSession struct {
	ID        SessionID
	UserID    UserID
	Phase     Phase
	Quiz      QuizAnswers
	CreatedAt Timestamp
	UpdatedAt Timestamp
}
