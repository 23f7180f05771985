// Package sqlite provides local persistence for reports, journal data,
// and token state.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// Store implements domain.ReportStore, domain.JournalStore, and
// domain.TokenStore on a single SQLite file.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency between the HTTP handlers.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		quiz_json TEXT NOT NULL,
		summary_json TEXT NOT NULL,
		message_count INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_user ON reports(user_id, created_at);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		responses_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_journal_user ON journal_entries(user_id, created_at);

	CREATE TABLE IF NOT EXISTS journal_insights (
		entry_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		insight TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_insights_user ON journal_insights(user_id, created_at);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		goal_text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id, created_at);

	CREATE TABLE IF NOT EXISTS tokens (
		user_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL,
		next_regen_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─────────────────────────────────────────
// ReportStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendReport(ctx context.Context, report *domain.Report) error {
	quizJSON, err := json.Marshal(report.Quiz)
	if err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}
	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, session_id, user_id, created_at, quiz_json, summary_json, message_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(report.ID), string(report.SessionID), string(report.UserID),
		report.CreatedAt.Unix(), string(quizJSON), string(summaryJSON), report.MessageCount,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *Store) ListReportsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Report, error) {
	query := `
		SELECT id, session_id, created_at, quiz_json, summary_json, message_count
		FROM reports WHERE user_id = ? ORDER BY created_at ASC`
	args := []any{string(userID)}
	if limit > 0 {
		// Keep chronological order but cap to the newest rows.
		query = `
			SELECT id, session_id, created_at, quiz_json, summary_json, message_count
			FROM (
				SELECT * FROM reports WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
			) ORDER BY created_at ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []*domain.Report
	for rows.Next() {
		var (
			report    domain.Report
			id        string
			sessionID string
			createdAt int64
			quizJSON  string
			sumJSON   string
		)
		if err := rows.Scan(&id, &sessionID, &createdAt, &quizJSON, &sumJSON, &report.MessageCount); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		report.ID = domain.ReportID(id)
		report.SessionID = domain.SessionID(sessionID)
		report.UserID = userID
		report.CreatedAt = time.Unix(createdAt, 0)
		if err := json.Unmarshal([]byte(quizJSON), &report.Quiz); err != nil {
			return nil, fmt.Errorf("decode quiz: %w", err)
		}
		if err := json.Unmarshal([]byte(sumJSON), &report.Summary); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		out = append(out, &report)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────
// JournalStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	responsesJSON, err := json.Marshal(entry.Responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (id, user_id, entry_type, created_at, responses_json)
		VALUES (?, ?, ?, ?, ?)`,
		string(entry.ID), string(entry.UserID), string(entry.Type),
		entry.CreatedAt.Unix(), string(responsesJSON),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (s *Store) ListJournalEntriesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	query := `
		SELECT id, entry_type, created_at, responses_json
		FROM (
			SELECT * FROM journal_entries WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC`
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, query, string(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()

	var out []*domain.JournalEntry
	for rows.Next() {
		var (
			entry     domain.JournalEntry
			id        string
			entryType string
			createdAt int64
			respJSON  string
		)
		if err := rows.Scan(&id, &entryType, &createdAt, &respJSON); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		entry.ID = domain.JournalEntryID(id)
		entry.UserID = userID
		entry.Type = domain.JournalType(entryType)
		entry.CreatedAt = time.Unix(createdAt, 0)
		if err := json.Unmarshal([]byte(respJSON), &entry.Responses); err != nil {
			return nil, fmt.Errorf("decode responses: %w", err)
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

func (s *Store) AppendJournalInsight(ctx context.Context, insight *domain.JournalInsight) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_insights (entry_id, user_id, insight, created_at)
		VALUES (?, ?, ?, ?)`,
		string(insight.EntryID), string(insight.UserID), insight.Insight, insight.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

func (s *Store) ListJournalInsightsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalInsight, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_id, insight, created_at
		FROM (
			SELECT * FROM journal_insights WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC`,
		string(userID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var out []*domain.JournalInsight
	for rows.Next() {
		var (
			insight   domain.JournalInsight
			entryID   string
			createdAt int64
		)
		if err := rows.Scan(&entryID, &insight.Insight, &createdAt); err != nil {
			return nil, fmt.Errorf("scan insight row: %w", err)
		}
		insight.EntryID = domain.JournalEntryID(entryID)
		insight.UserID = userID
		insight.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, &insight)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────
// GoalStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendGoal(ctx context.Context, goal *domain.Goal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, goal_text, created_at)
		VALUES (?, ?, ?, ?)`,
		string(goal.ID), string(goal.UserID), goal.Text, goal.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (s *Store) ListGoalsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Goal, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, goal_text, created_at
		FROM (
			SELECT * FROM goals WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC`,
		string(userID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []*domain.Goal
	for rows.Next() {
		var (
			goal      domain.Goal
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &goal.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan goal row: %w", err)
		}
		goal.ID = domain.GoalID(id)
		goal.UserID = userID
		goal.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, &goal)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────
// TokenStore implementation
// ─────────────────────────────────────────

func (s *Store) GetTokenState(ctx context.Context, userID domain.UserID) (*domain.TokenState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT balance, next_regen_at, updated_at FROM tokens WHERE user_id = ?`,
		string(userID),
	)

	var (
		state       domain.TokenState
		nextRegenAt int64
		updatedAt   int64
	)
	err := row.Scan(&state.Balance, &nextRegenAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan token row: %w", err)
	}

	state.UserID = userID
	if nextRegenAt > 0 {
		state.NextRegenAt = time.Unix(nextRegenAt, 0)
	}
	state.UpdatedAt = time.Unix(updatedAt, 0)
	return &state, nil
}

func (s *Store) PutTokenState(ctx context.Context, state *domain.TokenState) error {
	var nextRegenAt int64
	if !state.NextRegenAt.IsZero() {
		nextRegenAt = state.NextRegenAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (user_id, balance, next_regen_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			balance = excluded.balance,
			next_regen_at = excluded.next_regen_at,
			updated_at = excluded.updated_at`,
		string(state.UserID), state.Balance, nextRegenAt, state.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert token state: %w", err)
	}
	return nil
}
