package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// Ensure SQLiteStore implements model.SavedStore.
var _ model.SavedStore = (*SQLiteStore)(nil)

// SQLiteStore keeps the saved-jobs relation in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// saved_jobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS saved_jobs (
		job_id   TEXT PRIMARY KEY,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating saved_jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// IsSaved returns true if the given job ID is saved.
func (s *SQLiteStore) IsSaved(jobID string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM saved_jobs WHERE job_id = ?", jobID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking saved status for %s: %w", jobID, err)
	}
	return true, nil
}

// SetSaved saves or unsaves a job ID. Both directions are idempotent.
func (s *SQLiteStore) SetSaved(jobID string, saved bool) error {
	query := "DELETE FROM saved_jobs WHERE job_id = ?"
	if saved {
		query = "INSERT OR IGNORE INTO saved_jobs (job_id) VALUES (?)"
	}
	if _, err := s.db.Exec(query, jobID); err != nil {
		return fmt.Errorf("setting saved=%t for %s: %w", saved, jobID, err)
	}
	return nil
}

// SavedIDs returns every saved job ID.
func (s *SQLiteStore) SavedIDs() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT job_id FROM saved_jobs")
	if err != nil {
		return nil, fmt.Errorf("listing saved jobs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning saved job: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing saved jobs: %w", err)
	}
	return ids, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
