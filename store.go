package openlearnhub

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the backing document store: account credentials, user
// profiles, and quiz results.
type DB struct {
	db *sql.DB
}

// accountRecord is the credential record kept by the user directory,
// separate from the profile document a user can read back.
type accountRecord struct {
	UID          string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			uid TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			display_name TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			uid TEXT PRIMARY KEY,
			full_name TEXT NOT NULL,
			username TEXT NOT NULL,
			email TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quiz_results (
			id TEXT PRIMARY KEY,
			uid TEXT NOT NULL,
			video_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			difficulty TEXT,
			timestamp DATETIME NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// insertAccount creates a credential record. A duplicate email violates
// the unique constraint and surfaces as an error.
func (db *DB) insertAccount(ctx context.Context, rec *accountRecord) error {
	_, err := db.db.ExecContext(ctx,
		"INSERT INTO accounts (uid, email, password_hash, display_name, created_at) VALUES (?, ?, ?, ?, ?)",
		rec.UID, rec.Email, rec.PasswordHash, rec.DisplayName, rec.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: email %s is already in use", ErrAccountExists, rec.Email)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// deleteAccount removes a credential record. Used as the compensating
// action when the profile write after account creation fails.
func (db *DB) deleteAccount(ctx context.Context, uid string) error {
	_, err := db.db.ExecContext(ctx, "DELETE FROM accounts WHERE uid = ?", uid)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// upsertProfile writes the profile document only if no record exists
// yet. First sign-in wins; subsequent calls never overwrite.
func (db *DB) upsertProfile(ctx context.Context, account *UserAccount) error {
	_, err := db.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (uid, full_name, username, email) VALUES (?, ?, ?, ?)",
		account.UID, account.FullName, account.Username, account.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// profileByEmail looks a profile document up by email address.
func (db *DB) profileByEmail(ctx context.Context, email string) (*UserAccount, error) {
	var account UserAccount
	err := db.db.QueryRowContext(ctx,
		"SELECT uid, full_name, username, email FROM users WHERE email = ?",
		email,
	).Scan(&account.UID, &account.FullName, &account.Username, &account.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &account, nil
}

// profileByUID looks a profile document up by user identifier.
func (db *DB) profileByUID(ctx context.Context, uid string) (*UserAccount, error) {
	var account UserAccount
	err := db.db.QueryRowContext(ctx,
		"SELECT uid, full_name, username, email FROM users WHERE uid = ?",
		uid,
	).Scan(&account.UID, &account.FullName, &account.Username, &account.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &account, nil
}

// InsertQuizResult appends a new quiz result. Duplicate submissions
// create duplicate records; nothing here deduplicates.
func (db *DB) InsertQuizResult(ctx context.Context, result *QuizResult) error {
	_, err := db.db.ExecContext(ctx,
		"INSERT INTO quiz_results (id, uid, video_id, score, total, difficulty, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)",
		uuid.NewString(), result.UID, result.VideoID, result.Score, result.Total, result.Difficulty, result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to store quiz result: %w", err)
	}
	return nil
}

// QuizResultsByUser retrieves all quiz results for a user. No results
// is an empty slice, not an error.
func (db *DB) QuizResultsByUser(ctx context.Context, uid string) ([]QuizResult, error) {
	rows, err := db.db.QueryContext(ctx,
		"SELECT uid, video_id, score, total, difficulty, timestamp FROM quiz_results WHERE uid = ?",
		uid,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %w", err)
	}
	defer rows.Close()

	results := []QuizResult{}
	for rows.Next() {
		var result QuizResult
		err := rows.Scan(&result.UID, &result.VideoID, &result.Score, &result.Total, &result.Difficulty, &result.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz result: %w", err)
		}
		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quiz results: %w", err)
	}

	return results, nil
}
