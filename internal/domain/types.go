package domain

import "time"

type SessionID string
type UserID string
type MessageID string
type ReportID string

type Sender string

const (
	SenderUser Sender = "user"
	SenderPal  Sender = "pal"
)

type Timestamp = time.Time

// Phase is the position of a guided session in its lifecycle.
// Transitions are strictly linear; only Ending returns to Idle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseQuizActive
	PhaseBreathing
	PhaseChatActive
	PhaseEnding
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseQuizActive:
		return "quiz_active"
	case PhaseBreathing:
		return "breathing"
	case PhaseChatActive:
		return "chat_active"
	case PhaseEnding:
		return "ending"
	default:
		return "unknown"
	}
}
