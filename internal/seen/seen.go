// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seen persists which papers have already been posted, so repeated
// runs over overlapping date ranges never repost. Papers are keyed by their
// arXiv ID or title hash (Paper.Key).
package seen

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

const dbFile = "posted.db"

// Store records posted papers in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the posted-papers database under dir, creating the
// schema when missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS posted_papers (
		key TEXT PRIMARY KEY,
		title TEXT,
		posted_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Posted reports whether the paper was already posted.
func (s *Store) Posted(paper *types.Paper) (bool, error) {
	var key string
	err := s.db.QueryRow(`SELECT key FROM posted_papers WHERE key = ?`, paper.Key()).Scan(&key)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying posted papers: %w", err)
	}
	return true, nil
}

// MarkPosted records the paper as posted. Marking twice is a no-op.
func (s *Store) MarkPosted(paper *types.Paper) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO posted_papers (key, title, posted_at) VALUES (?, ?, ?)`,
		paper.Key(), paper.Title, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording posted paper: %w", err)
	}
	return nil
}

// Count returns the number of recorded papers.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posted_papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting posted papers: %w", err)
	}
	return n, nil
}
