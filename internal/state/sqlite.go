package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the mapping in a SQLite database. Snapshot
// semantics match the JSON store: Save replaces the full record set.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id     TEXT PRIMARY KEY,
		record TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads every record.
func (s *SQLiteStore) Load() (Map, error) {
	rows, err := s.db.Query(`SELECT id, record FROM records`)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	m := Map{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("parse record %s: %w", id, err)
		}
		m[id] = &rec
	}
	return m, rows.Err()
}

// Save replaces the stored snapshot with m in one transaction.
func (s *SQLiteStore) Save(m Map) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO records (id, record) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, rec := range m {
		doc, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(id, string(doc)); err != nil {
			return err
		}
	}

	return tx.Commit()
}
