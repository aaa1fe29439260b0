package movie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// Store is the in-memory, append-only list of records produced by one
// scrape session. It is not safe for concurrent use; a session owns its
// store exclusively.
type Store struct {
	records []Record
}

// NewStore creates an empty result store.
func NewStore() *Store {
	return &Store{records: []Record{}}
}

// Append adds a copy of r to the end of the store.
func (s *Store) Append(r Record) {
	r = r.clone()
	r.normalize()
	s.records = append(s.records, r)
}

// Len returns the number of records collected so far.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns a copy of the collected records in insertion order.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

// Flush writes every record to path as an indented JSON array, replacing
// any existing file. Non-ASCII text is written as-is.
func (s *Store) Flush(path string) error {
	return WriteFile(path, s.records)
}

// encode renders records the way Flush writes them.
func encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to marshal movies: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes records and writes them to path (0644).
func WriteFile(path string, records []Record) error {
	data, err := encode(records)
	if err != nil {
		return err
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile parses a file previously written by Flush.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
