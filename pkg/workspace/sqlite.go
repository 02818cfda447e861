package workspace

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// selectedKey is the preference key holding the selected workspace.
const selectedKey = "workspace"

// SQLiteStore persists preferences, including the selected workspace, in a
// small sqlite database under the data directory.
type SQLiteStore struct {
	db      *sql.DB
	dataDir string
}

// NewSQLiteStore opens (creating if needed) the preferences database.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		dataDir: dataDir,
	}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	return s, nil
}

// init creates the database schema
func (s *SQLiteStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Selected returns the stored workspace reference, or nil when none is stored.
func (s *SQLiteStore) Selected() (*Ref, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", selectedKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ref := &Ref{}
	if err := json.Unmarshal([]byte(value), ref); err != nil {
		// A corrupt value is treated as absent so the default takes over.
		return nil, nil
	}
	return ref, nil
}

// SetSelected stores the workspace reference.
func (s *SQLiteStore) SetSelected(ref Ref) error {
	if err := ref.Validate(); err != nil {
		return fmt.Errorf("validate workspace: %w", err)
	}

	value, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal workspace: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO preferences (key, value, updated_at)
	VALUES (?, ?, ?)
	`
	_, err = s.db.Exec(query, selectedKey, string(value), time.Now())
	return err
}

// Close closes the preferences database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
