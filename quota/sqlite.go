package quota

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists quota state so the counter survives restarts.
type SQLiteStore struct {
	db   *sql.DB
	name string
}

// NewSQLiteStore opens (or creates) the database at dbPath. name selects
// the counter row, allowing several quotas to share one file.
func NewSQLiteStore(dbPath, name string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, name: name}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the quota table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quota (
		name TEXT PRIMARY KEY,
		used INTEGER NOT NULL,
		last_reset TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the saved state for this store's name.
func (s *SQLiteStore) Load() (State, bool, error) {
	query := "SELECT used, last_reset FROM quota WHERE name = ?"

	var used int
	var lastReset string
	err := s.db.QueryRow(query, s.name).Scan(&used, &lastReset)
	if err == sql.ErrNoRows {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to query quota: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, lastReset)
	if err != nil {
		return State{}, false, fmt.Errorf("invalid last_reset %q: %w", lastReset, err)
	}

	return State{Used: used, LastReset: t}, true, nil
}

// Save replaces the saved state for this store's name.
func (s *SQLiteStore) Save(state State) error {
	query := "INSERT OR REPLACE INTO quota (name, used, last_reset) VALUES (?, ?, ?)"
	_, err := s.db.Exec(query, s.name, state.Used, state.LastReset.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to update quota: %w", err)
	}
	return nil
}
