package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/scorm/pkg/domain"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - attempts + attempt_values
const currentSchemaVersion = 1

// Store implements ports.AttemptStore on SQLite.
// Each data model element is a row, so attempts can be queried per element.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and applies the schema.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement (attempt_values cascade on delete)
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Save replaces the attempt row and all of its values in one transaction.
func (s *Store) Save(ctx context.Context, registrationID string, attempt *domain.Attempt) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var terminatedAt sql.NullString
	if attempt.TerminatedAt != nil {
		terminatedAt = sql.NullString{String: formatTime(*attempt.TerminatedAt), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attempts (registration_id, learner_id, sco_id, session_id, commits, started_at, updated_at, terminated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(registration_id) DO UPDATE SET
			learner_id = excluded.learner_id,
			sco_id = excluded.sco_id,
			session_id = excluded.session_id,
			commits = excluded.commits,
			started_at = excluded.started_at,
			updated_at = excluded.updated_at,
			terminated_at = excluded.terminated_at`,
		registrationID, attempt.LearnerID, attempt.ScoID, attempt.SessionID, attempt.Commits,
		formatTime(attempt.StartedAt), formatTime(attempt.UpdatedAt), terminatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert attempt: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM attempt_values WHERE registration_id = ?`, registrationID); err != nil {
		return fmt.Errorf("clear attempt values: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO attempt_values (registration_id, element, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare value insert: %w", err)
	}
	defer stmt.Close()

	for _, element := range attempt.Data.Keys() {
		if _, err = stmt.ExecContext(ctx, registrationID, element, attempt.Data[element]); err != nil {
			return fmt.Errorf("insert value %s: %w", element, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Load reads the attempt row and its values.
func (s *Store) Load(ctx context.Context, registrationID string) (*domain.Attempt, error) {
	var (
		a            domain.Attempt
		startedAt    string
		updatedAt    string
		terminatedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT registration_id, learner_id, sco_id, session_id, commits, started_at, updated_at, terminated_at
		FROM attempts WHERE registration_id = ?`, registrationID,
	).Scan(&a.RegistrationID, &a.LearnerID, &a.ScoID, &a.SessionID, &a.Commits, &startedAt, &updatedAt, &terminatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("query attempt: %w", err)
	}

	if a.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if terminatedAt.Valid {
		t, err := parseTime(terminatedAt.String)
		if err != nil {
			return nil, err
		}
		a.TerminatedAt = &t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT element, value FROM attempt_values WHERE registration_id = ?`, registrationID)
	if err != nil {
		return nil, fmt.Errorf("query attempt values: %w", err)
	}
	defer rows.Close()

	a.Data = domain.Snapshot{}
	for rows.Next() {
		var element, value string
		if err := rows.Scan(&element, &value); err != nil {
			return nil, fmt.Errorf("scan attempt value: %w", err)
		}
		a.Data[element] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt values: %w", err)
	}
	return &a, nil
}

// Delete removes the attempt; its values go with it through the foreign key.
func (s *Store) Delete(ctx context.Context, registrationID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attempts WHERE registration_id = ?`, registrationID); err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	return nil
}

// List returns all registration IDs ordered by last update, newest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT registration_id FROM attempts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan registration id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
