package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"personal-insights/pkg/types"
)

// ErrNoResult is returned when a user has no stored analysis yet
var ErrNoResult = errors.New("no analysis result stored for user")

// SQLiteStore persists analysis results and feedback in a local SQLite
// database. Results are stored as JSON payloads keyed by user and
// generation time; feedback rows are append-only.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_sync=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		generated_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_user_time
		ON analysis_results(user_id, generated_at DESC);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		insight_id TEXT NOT NULL,
		rating REAL NOT NULL,
		action TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_user
		ON feedback(user_id, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SaveResult stores one analysis result for the user
func (s *SQLiteStore) SaveResult(ctx context.Context, userID string, result *types.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_results (user_id, generated_at, payload) VALUES (?, ?, ?)`,
		userID, result.GeneratedAt.UnixMilli(), string(payload))
	if err != nil {
		return fmt.Errorf("failed to store analysis result: %w", err)
	}
	return nil
}

// LatestResult returns the most recently generated result for the user
func (s *SQLiteStore) LatestResult(ctx context.Context, userID string) (*types.AnalysisResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM analysis_results WHERE user_id = ? ORDER BY generated_at DESC LIMIT 1`,
		userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoResult
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis result: %w", err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}
	return &result, nil
}

// AppendFeedback inserts feedback rows inside one transaction so a
// batch is all-or-nothing.
func (s *SQLiteStore) AppendFeedback(ctx context.Context, userID string, entries []types.Feedback) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin feedback transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO feedback (user_id, insight_id, rating, action, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare feedback insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, fb := range entries {
		ts := fb.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, userID, fb.InsightID, fb.Rating, fb.Action, ts.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert feedback: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feedback: %w", err)
	}
	return nil
}

// FeedbackLog returns the user's feedback in append order
func (s *SQLiteStore) FeedbackLog(ctx context.Context, userID string) ([]types.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT insight_id, rating, action, created_at FROM feedback WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	log := []types.Feedback{}
	for rows.Next() {
		var fb types.Feedback
		var createdAt int64
		if err := rows.Scan(&fb.InsightID, &fb.Rating, &fb.Action, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		fb.Timestamp = time.UnixMilli(createdAt).UTC()
		log = append(log, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback rows: %w", err)
	}
	return log, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
