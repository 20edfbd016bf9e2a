package topicquiz

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Generation statuses recorded in the audit database
const (
	GenerationSucceeded = "succeeded"
	GenerationFailed    = "failed"
)

// Recorder receives an audit record of every generation and grading
type Recorder interface {
	RecordGeneration(ctx context.Context, rec *GenerationRecord) error
	RecordSubmission(ctx context.Context, rec *SubmissionRecord) error
}

// DB is the operator audit database. It is never read back into a session.
type DB struct {
	db *sql.DB
}

// GenerationRecord represents one generation attempt
type GenerationRecord struct {
	QuizID        string    `json:"quiz_id"`
	CallerID      string    `json:"caller_id"`
	Topic         string    `json:"topic"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmissionRecord represents one graded submission
type SubmissionRecord struct {
	ID         int64     `json:"id"`
	QuizID     string    `json:"quiz_id"`
	CallerID   string    `json:"caller_id"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	CreatedAt  time.Time `json:"created_at"`
}

// OpenDB opens the audit database and creates its tables
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	audit := &DB{db: db}
	if err := audit.CreateTables(); err != nil {
		db.Close()
		return nil, err
	}
	return audit, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS generations (
			quiz_id TEXT PRIMARY KEY,
			caller_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			provider TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			question_count INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			quiz_id TEXT NOT NULL,
			caller_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			percentage REAL NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_quiz ON submissions(quiz_id)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// RecordGeneration stores a generation attempt
func (db *DB) RecordGeneration(ctx context.Context, rec *GenerationRecord) error {
	_, err := db.db.ExecContext(ctx,
		"INSERT INTO generations (quiz_id, caller_id, topic, provider, status, error, question_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rec.QuizID, rec.CallerID, rec.Topic, rec.Provider, rec.Status, rec.Error, rec.QuestionCount, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// RecordSubmission stores a graded submission
func (db *DB) RecordSubmission(ctx context.Context, rec *SubmissionRecord) error {
	res, err := db.db.ExecContext(ctx,
		"INSERT INTO submissions (quiz_id, caller_id, score, total, percentage, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.QuizID, rec.CallerID, rec.Score, rec.Total, rec.Percentage, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// GetGeneration retrieves a generation record by quiz ID
func (db *DB) GetGeneration(ctx context.Context, quizID string) (*GenerationRecord, error) {
	var rec GenerationRecord
	err := db.db.QueryRowContext(ctx,
		"SELECT quiz_id, caller_id, topic, provider, status, error, question_count, created_at FROM generations WHERE quiz_id = ?",
		quizID,
	).Scan(&rec.QuizID, &rec.CallerID, &rec.Topic, &rec.Provider, &rec.Status, &rec.Error, &rec.QuestionCount, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("generation not found: %s", quizID)
		}
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return &rec, nil
}

// GetGenerations retrieves the most recent generations, optionally limited by count
func (db *DB) GetGenerations(ctx context.Context, limit int) ([]GenerationRecord, error) {
	query := "SELECT quiz_id, caller_id, topic, provider, status, error, question_count, created_at FROM generations ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get generations: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var rec GenerationRecord
		if err := rows.Scan(&rec.QuizID, &rec.CallerID, &rec.Topic, &rec.Provider, &rec.Status, &rec.Error, &rec.QuestionCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generations: %w", err)
	}
	return records, nil
}

// GetSubmissions retrieves all graded submissions of a quiz
func (db *DB) GetSubmissions(ctx context.Context, quizID string) ([]SubmissionRecord, error) {
	rows, err := db.db.QueryContext(ctx,
		"SELECT id, quiz_id, caller_id, score, total, percentage, created_at FROM submissions WHERE quiz_id = ? ORDER BY id",
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}
	defer rows.Close()

	var records []SubmissionRecord
	for rows.Next() {
		var rec SubmissionRecord
		if err := rows.Scan(&rec.ID, &rec.QuizID, &rec.CallerID, &rec.Score, &rec.Total, &rec.Percentage, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return records, nil
}
