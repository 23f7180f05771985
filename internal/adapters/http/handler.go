package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	journalapp "github.com/mindsprout/pal-agent/internal/app/journal"
	"github.com/mindsprout/pal-agent/internal/app/progress"
	"github.com/mindsprout/pal-agent/internal/app/session"
	"github.com/mindsprout/pal-agent/internal/domain"
)

// Server exposes the guided-session lifecycle, reports, journal, and
// token status over HTTP. Identity arrives as a plain user_id; real
// authentication lives in front of this service.
type Server struct {
	registry *session.Registry
	journal  *journalapp.Service
	tokens   domain.TokenService
	reports  domain.ReportStore
	goals    domain.GoalStore
}

func NewServer(
	registry *session.Registry,
	journal *journalapp.Service,
	tokens domain.TokenService,
	reports domain.ReportStore,
	goals domain.GoalStore,
) http.Handler {
	s := &Server{
		registry: registry,
		journal:  journal,
		tokens:   tokens,
		reports:  reports,
		goals:    goals,
	}

	r := chi.NewRouter()
	r.Use(withRequestID, withLogging, withCORS)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/regular", func(r chi.Router) {
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/current", s.handleSessionSnapshot)
		r.Post("/sessions/quiz", s.handleQuizAnswer)
		r.Post("/sessions/messages", s.handleSendMessage)
		r.Post("/sessions/extend", s.handleExtend)
		r.Post("/sessions/end", s.handleEndSession)
		r.Delete("/sessions", s.handleLogout)

		r.Get("/reports", s.handleListReports)
		r.Get("/last-chat", s.handleTokenStatus)
		r.Get("/progress", s.handleProgress)

		r.Post("/goals", s.handleSaveGoal)
		r.Get("/goals", s.handleListGoals)

		r.Post("/journal", s.handleSaveJournal)
		r.Get("/journal", s.handleListJournal)
		r.Post("/journal-insights", s.handleGenerateInsight)
		r.Get("/journal-insights", s.handleListInsights)
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type userRequest struct {
	UserID string `json:"user_id"`
}

type quizAnswerRequest struct {
	UserID string `json:"user_id"`
	Value  int    `json:"value"`
}

type sendMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type saveJournalRequest struct {
	UserID    string            `json:"user_id"`
	Type      string            `json:"type"`
	Responses map[string]string `json:"responses"`
}

type insightRequest struct {
	UserID  string `json:"user_id"`
	EntryID string `json:"entry_id"`
}

type saveGoalRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type tokenStatusResponse struct {
	ChatTokens  int        `json:"chatTokens"`
	NextRegenAt *time.Time `json:"nextRegenAt,omitempty"`
}

type progressResponse struct {
	XP int `json:"xp"`
}

// ─────────────────────────────────────────────
// Session handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}

	m := s.registry.GetOrCreate(userID)
	if err := m.Start(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m.Snapshot())
}

func (s *Server) handleSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	m, ok := s.registry.Get(userID)
	if !ok {
		writeError(w, domain.ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	var req quizAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}
	m, ok := s.registry.Get(userID)
	if !ok {
		writeError(w, domain.ErrSessionNotFound)
		return
	}
	if err := m.AnswerQuiz(req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}
	m, ok := s.registry.Get(userID)
	if !ok {
		writeError(w, domain.ErrSessionNotFound)
		return
	}

	// Send is fire-and-forget: out-of-phase and over-time sends are
	// silent no-ops, matching the chat surface.
	m.Send(r.Context(), req.Text)
	writeJSON(w, http.StatusAccepted, m.Snapshot())
}

func (s *Server) handleExtend(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}
	m, ok := s.registry.Get(userID)
	if !ok {
		writeError(w, domain.ErrSessionNotFound)
		return
	}
	if err := m.Extend(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}
	m, ok := s.registry.Get(userID)
	if !ok {
		writeError(w, domain.ErrSessionNotFound)
		return
	}
	if err := m.End(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}
	s.registry.Drop(userID)
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Reports, tokens, progress
// ─────────────────────────────────────────────

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	reports, err := s.reports.ListReportsByUser(r.Context(), userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if reports == nil {
		reports = []*domain.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleTokenStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	status, err := s.tokens.Status(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Keep the machine's mirror honest whenever the client polls.
	if m, live := s.registry.Get(userID); live {
		m.Ledger().Reconcile(status.Balance, status.NextRegenAt)
	}

	resp := tokenStatusResponse{ChatTokens: status.Balance}
	if !status.NextRegenAt.IsZero() {
		t := status.NextRegenAt
		resp.NextRegenAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	reports, err := s.reports.ListReportsByUser(r.Context(), userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := s.journal.ListEntries(r.Context(), userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	goals, err := s.goals.ListGoalsByUser(r.Context(), userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}

	xp := progress.XP(len(reports), len(goals), len(entries), len(reports) > 0)
	writeJSON(w, http.StatusOK, progressResponse{XP: xp})
}

// ─────────────────────────────────────────────
// Goal handlers
// ─────────────────────────────────────────────

func (s *Server) handleSaveGoal(w http.ResponseWriter, r *http.Request) {
	var req saveGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "goal text is required")
		return
	}

	goal := &domain.Goal{
		ID:        domain.GoalID(uuid.NewString()),
		UserID:    userID,
		Text:      strings.TrimSpace(req.Text),
		CreatedAt: time.Now(),
	}
	if err := s.goals.AppendGoal(r.Context(), goal); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	goals, err := s.goals.ListGoalsByUser(r.Context(), userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if goals == nil {
		goals = []*domain.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

// ─────────────────────────────────────────────
// Journal handlers
// ─────────────────────────────────────────────

func (s *Server) handleSaveJournal(w http.ResponseWriter, r *http.Request) {
	var req saveJournalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}

	entry, err := s.journal.SaveEntry(r.Context(), userID, domain.JournalType(req.Type), req.Responses)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	entries, err := s.journal.ListEntries(r.Context(), userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*domain.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGenerateInsight(w http.ResponseWriter, r *http.Request) {
	var req insightRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, req.UserID)
	if !ok {
		return
	}
	if req.EntryID == "" {
		badRequest(w, "entry_id is required")
		return
	}

	entries, err := s.journal.ListEntries(r.Context(), userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	var entry *domain.JournalEntry
	for _, e := range entries {
		if e.ID == domain.JournalEntryID(req.EntryID) {
			entry = e
			break
		}
	}
	if entry == nil {
		http.NotFound(w, r)
		return
	}

	ledger := s.registry.GetOrCreate(userID).Ledger()
	insight, err := s.journal.GenerateInsight(r.Context(), ledger, entry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, insight)
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	insights, err := s.journal.ListInsights(r.Context(), userID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if insights == nil {
		insights = []*domain.JournalInsight{}
	}
	writeJSON(w, http.StatusOK, insights)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func requireUser(w http.ResponseWriter, raw string) (domain.UserID, bool) {
	if raw == "" {
		badRequest(w, "user_id is required")
		return "", false
	}
	return domain.UserID(raw), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientTokens):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "No chat tokens available. Wait for a token to regenerate (every 3 hours).",
		})
	case errors.Is(err, domain.ErrWrongPhase):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
	case errors.Is(err, domain.ErrSessionEnd):
		// The session still returned to Idle; the report is what was lost.
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}
