package session

import (
	"sync"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// Transcript is the append-only message buffer for the active chat.
// Storage order is send order; presentation decides display order.
type Transcript struct {
	mu   sync.Mutex
	msgs []domain.ChatMessage
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds one message at the end.
func (t *Transcript) Append(msg domain.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msg)
}

// Messages returns a copy in send order.
func (t *Transcript) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ChatMessage, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of buffered messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}

// UserMessageCount counts messages sent by the user, excluding the
// greeting and any other assistant messages.
func (t *Transcript) UserMessageCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, m := range t.msgs {
		if m.Sender == domain.SenderUser {
			n++
		}
	}
	return n
}

// Freeze returns the transcript as it stands, for submission at session
// end. The buffer itself is left to Clear.
func (t *Transcript) Freeze() []domain.ChatMessage {
	return t.Messages()
}

// Clear empties the buffer.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = nil
}
