package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mindsprout/pal-agent/internal/domain"
	"github.com/mindsprout/pal-agent/internal/observability"
)

// Greeting opens every chat, seeded by the machine itself.
const Greeting = "Hello, welcome to this safe space, what is on your mind today?"

// Config tunes one machine. Zero values fall back to production defaults.
type Config struct {
	ChatLengthSeconds int
	ExtensionSeconds  int
	MaxExtensions     int
	BreatheStart      int
	MessageLimit      int
	DebounceWindow    time.Duration
	// TickInterval is one countdown unit of real time. One second in
	// production; tests shorten it.
	TickInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChatLengthSeconds == 0 {
		c.ChatLengthSeconds = 10 * 60
	}
	if c.ExtensionSeconds == 0 {
		c.ExtensionSeconds = 5 * 60
	}
	if c.MaxExtensions == 0 {
		c.MaxExtensions = 3
	}
	if c.BreatheStart == 0 {
		c.BreatheStart = 3
	}
	if c.MessageLimit == 0 {
		c.MessageLimit = 500
	}
	if c.TickInterval == 0 {
		c.TickInterval = time.Second
	}
	return c
}

// Machine drives one user's guided session through
// Idle -> QuizActive -> Breathing -> ChatActive -> Ending -> Idle.
// All transitions are serialized behind one mutex. A timer callback and a
// user action racing at the same instant are resolved by phase guards:
// whichever transition lands first wins and the loser becomes a no-op, so
// the chat countdown reaching zero always beats a simultaneous manual end.
type Machine struct {
	mu  sync.Mutex
	cfg Config

	id     domain.SessionID
	userID domain.UserID

	phase      domain.Phase
	quiz       domain.QuizAnswers
	questionAt int
	extensions int

	breathe    *Countdown
	chat       *Countdown
	transcript *Transcript
	sender     *debouncer
	// sendMu keeps at most one outbound chat call in flight.
	sendMu sync.Mutex

	ledger  *Ledger
	chatLLM domain.ChatClient
	reports domain.ReportWriter
	store   domain.ReportStore

	// notify is the single user-facing message channel; every surfaced
	// error funnels through it.
	notify func(string)
	now    func() time.Time
}

// NewMachine wires a machine for one user. notify may be nil.
func NewMachine(
	userID domain.UserID,
	ledger *Ledger,
	chatLLM domain.ChatClient,
	reports domain.ReportWriter,
	store domain.ReportStore,
	cfg Config,
	notify func(string),
) *Machine {
	cfg = cfg.withDefaults()
	if notify == nil {
		notify = func(msg string) {
			observability.Logger().Info("session notice", "user_id", userID, "notice", msg)
		}
	}
	return &Machine{
		cfg:        cfg,
		userID:     userID,
		phase:      domain.PhaseIdle,
		breathe:    NewCountdown(cfg.TickInterval),
		chat:       NewCountdown(cfg.TickInterval),
		transcript: NewTranscript(),
		sender:     newDebouncer(cfg.DebounceWindow),
		ledger:     ledger,
		chatLLM:    chatLLM,
		reports:    reports,
		store:      store,
		notify:     notify,
		now:        time.Now,
	}
}

// Start opens a new session: Idle -> QuizActive, gated on the token
// balance. Starting does not spend a token; that happens on confirmed
// completion.
func (m *Machine) Start() error {
	m.mu.Lock()
	if m.phase != domain.PhaseIdle {
		m.mu.Unlock()
		return fmt.Errorf("start session: %w", domain.ErrWrongPhase)
	}
	if err := m.ledger.Reserve("start_session"); err != nil {
		m.mu.Unlock()
		m.notify("No chat tokens available. Wait for a token to regenerate (every " +
			regenHint(m.ledger.RegenPeriod()) + ").")
		return err
	}
	m.id = domain.SessionID(uuid.NewString())
	m.quiz = make(domain.QuizAnswers, len(domain.Dimensions))
	m.questionAt = 0
	m.extensions = 0
	m.phase = domain.PhaseQuizActive
	m.mu.Unlock()

	observability.WithFields("user_id", m.userID, "session_id", m.id).Info("session started")
	return nil
}

// AnswerQuiz records the rating for the current question and advances.
// The final answer moves the session into the breathing countdown.
func (m *Machine) AnswerQuiz(value int) error {
	m.mu.Lock()
	if m.phase != domain.PhaseQuizActive {
		m.mu.Unlock()
		return fmt.Errorf("answer quiz: %w", domain.ErrWrongPhase)
	}
	if value < 1 || value > 5 {
		m.mu.Unlock()
		return fmt.Errorf("quiz answer out of range: %d", value)
	}

	m.quiz[domain.Dimensions[m.questionAt]] = value
	if m.questionAt < len(domain.Dimensions)-1 {
		m.questionAt++
		m.mu.Unlock()
		return nil
	}

	m.phase = domain.PhaseBreathing
	m.mu.Unlock()

	m.breathe.Start(m.cfg.BreatheStart, nil, m.enterChat)
	return nil
}

// enterChat runs when the breathing countdown reaches zero.
func (m *Machine) enterChat() {
	m.mu.Lock()
	if m.phase != domain.PhaseBreathing {
		m.mu.Unlock()
		return
	}
	m.phase = domain.PhaseChatActive
	m.transcript.Clear()
	m.transcript.Append(m.palMessage(Greeting))
	m.mu.Unlock()

	m.chat.Start(m.cfg.ChatLengthSeconds, nil, m.chatExpired)
}

func (m *Machine) chatExpired() {
	// The countdown owns this transition; a manual end racing it no-ops.
	if err := m.finish(context.Background()); err != nil {
		observability.WithFields("user_id", m.userID).Error("auto end failed", "error", err)
	}
}

// Send queues a chat message. Input past the message limit is truncated at
// entry; blank input, a finished countdown, and any phase but ChatActive
// are silent no-ops. Rapid repeated sends coalesce into one dispatch per
// debounce window.
func (m *Machine) Send(ctx context.Context, text string) {
	if utf8.RuneCountInString(text) > m.cfg.MessageLimit {
		text = string([]rune(text)[:m.cfg.MessageLimit])
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	m.sender.Trigger(func() { m.deliver(ctx, text) })
}

func (m *Machine) deliver(ctx context.Context, text string) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	if m.phase != domain.PhaseChatActive || m.chat.Remaining() <= 0 {
		m.mu.Unlock()
		return
	}

	m.transcript.Append(domain.ChatMessage{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: m.id,
		Sender:    domain.SenderUser,
		Text:      text,
		SentAt:    m.now(),
	})

	if screenForCrisis(text) {
		// Answered locally; the remote assistant is never called.
		m.transcript.Append(m.palMessage(helplineText))
		m.mu.Unlock()
		return
	}

	sessionID := m.id
	history := m.transcript.Messages()
	m.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("user_id", m.userID, "session_id", m.id)

	reply, repliedAt, err := m.chatLLM.GenerateReply(ctx, text, history)
	if err != nil {
		// The user message stays; retry is manual.
		err = fmt.Errorf("%w: %v", domain.ErrChatDispatch, err)
		log.Error("chat dispatch failed", "error", err)
		m.notify("Error chatting: " + err.Error())
		return
	}

	m.mu.Lock()
	// A reply that was in flight while the session ended must not land in
	// whatever session is live now, so the id is checked along with the
	// phase.
	if m.phase == domain.PhaseChatActive && m.id == sessionID {
		msg := m.palMessage(reply)
		if !repliedAt.IsZero() {
			msg.SentAt = repliedAt
		}
		m.transcript.Append(msg)
	}
	m.mu.Unlock()
}

// Extend adds the fixed extension to the chat countdown. The request past
// the extension cap is a no-op.
func (m *Machine) Extend() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != domain.PhaseChatActive {
		return fmt.Errorf("extend chat: %w", domain.ErrWrongPhase)
	}
	if m.extensions >= m.cfg.MaxExtensions {
		return nil
	}
	m.chat.Extend(m.cfg.ExtensionSeconds)
	m.extensions++
	return nil
}

// End finishes the chat explicitly. If the countdown reached zero at the
// same instant, that transition already won and End is a no-op.
func (m *Machine) End(ctx context.Context) error {
	return m.finish(ctx)
}

func (m *Machine) finish(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != domain.PhaseChatActive {
		m.mu.Unlock()
		return nil
	}
	m.phase = domain.PhaseEnding
	m.chat.Cancel()
	m.sender.Cancel()
	frozen := m.transcript.Freeze()
	quiz := m.quiz.Clone()
	sessionID := m.id
	// The transcript is cleared unconditionally on entering Ending; it is
	// never retried or preserved.
	m.transcript.Clear()
	m.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("user_id", m.userID, "session_id", sessionID)

	if countUserMessages(frozen) == 0 {
		// The user left without saying anything: no report, no token spent.
		log.Info("session abandoned before any message")
		m.reset()
		return nil
	}

	report, err := m.reports.ComposeReport(ctx, frozen, quiz)
	if err != nil {
		log.Error("compose report failed", "error", err)
		m.notify("Error ending chat: " + err.Error())
		m.reset()
		return fmt.Errorf("%w: %v", domain.ErrSessionEnd, err)
	}

	report.ID = domain.ReportID(uuid.NewString())
	report.SessionID = sessionID
	report.UserID = m.userID
	report.CreatedAt = m.now()
	report.Quiz = quiz
	report.MessageCount = len(frozen)

	if err := m.store.AppendReport(ctx, report); err != nil {
		log.Error("persist report failed", "error", err)
		m.notify("Error ending chat: " + err.Error())
		m.reset()
		return fmt.Errorf("%w: %v", domain.ErrSessionEnd, err)
	}

	// The token is consumed only now, on confirmed completion. A spend
	// failure degrades: the report is already saved and the next
	// reconcile corrects the balance either way.
	if err := m.ledger.ConfirmSpend(ctx, "complete_session", nil); err != nil {
		log.Error("session token spend failed", "error", err)
	}

	log.Info("session complete", "messages", len(frozen))
	m.notify("Session complete! Check your Reflect tab for the summary.")
	m.reset()
	return nil
}

// Reset cancels every countdown and pending send and returns to Idle
// without side effects. Used on logout and registry eviction.
func (m *Machine) Reset() {
	m.sender.Cancel()
	m.breathe.Cancel()
	m.chat.Cancel()
	m.reset()
}

func (m *Machine) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = domain.PhaseIdle
	m.transcript.Clear()
	m.quiz = nil
	m.questionAt = 0
	m.extensions = 0
	m.id = ""
}

func (m *Machine) palMessage(text string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: m.id,
		Sender:    domain.SenderPal,
		Text:      text,
		SentAt:    m.now(),
	}
}

// regenHint renders the regeneration period for user-facing notices.
func regenHint(period time.Duration) string {
	if period >= time.Hour && period%time.Hour == 0 {
		h := int(period / time.Hour)
		if h == 1 {
			return "hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return period.String()
}

func countUserMessages(msgs []domain.ChatMessage) int {
	n := 0
	for _, msg := range msgs {
		if msg.Sender == domain.SenderUser {
			n++
		}
	}
	return n
}

// Snapshot is the machine state the presentation layer reads.
type Snapshot struct {
	SessionID        domain.SessionID     `json:"session_id"`
	Phase            domain.Phase         `json:"-"`
	PhaseName        string               `json:"phase"`
	CurrentQuestion  int                  `json:"current_question"`
	Question         string               `json:"question,omitempty"`
	BreatheCountdown int                  `json:"breathe_countdown,omitempty"`
	ChatSecondsLeft  int                  `json:"chat_seconds_left,omitempty"`
	ExtensionsUsed   int                  `json:"extensions_used"`
	Transcript       []domain.ChatMessage `json:"transcript,omitempty"`
}

// Snapshot returns a consistent view of the live session.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		SessionID:       m.id,
		Phase:           m.phase,
		PhaseName:       m.phase.String(),
		CurrentQuestion: m.questionAt,
		ExtensionsUsed:  m.extensions,
	}
	switch m.phase {
	case domain.PhaseQuizActive:
		snap.Question = domain.Dimensions[m.questionAt].Question()
	case domain.PhaseBreathing:
		snap.BreatheCountdown = m.breathe.Remaining()
	case domain.PhaseChatActive:
		snap.ChatSecondsLeft = m.chat.Remaining()
		snap.Transcript = m.transcript.Messages()
	}
	return snap
}

// Phase returns the current lifecycle phase.
func (m *Machine) Phase() domain.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Ledger exposes the machine's token mirror.
func (m *Machine) Ledger() *Ledger {
	return m.ledger
}

// UserID returns the owning user.
func (m *Machine) UserID() domain.UserID {
	return m.userID
}
