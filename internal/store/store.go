package store

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrBadName  = fmt.Errorf("bad name for store")
	ErrNotFound = fmt.Errorf("value not found")
)

// Store is a key-value table in a sqlite database. Values are gob-encoded.
type Store struct {
	mu   sync.Mutex
	name string
	db   *sql.DB
}

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
	}
	return true
}

// New creates the table backing a [Store] if it does not exist yet. name may
// only contain Latin letters and underscores since it is spliced into SQL.
func New(db *sql.DB, name string) (*Store, error) {
	if !isName(name) {
		return nil, fmt.Errorf("%w: %q", ErrBadName, name)
	}

	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS ` + name + ` (
	key		TEXT PRIMARY KEY,
	value	BLOB
);`)
	if err != nil {
		return nil, fmt.Errorf("unable to create table %s: %w", name, err)
	}
	return &Store{name: name, db: db}, nil
}

func (s *Store) Name() string {
	return s.name
}

// Get retrieves a value. value must be a pointer or nil; when nil the stored
// data is discarded. A missing key yields [ErrNotFound].
func (s *Store) Get(key string, value any) error {
	var v []byte
	err := s.db.QueryRow(`SELECT value FROM `+s.name+` WHERE key = ?;`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, s.name, key)
	} else if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return gob.NewDecoder(bytes.NewReader(v)).Decode(value)
}

// Set inserts a new key-value pair or updates an existing one.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("unable to encode %s/%s: %w", s.name, key, err)
	}
	_, err := s.db.Exec(`
INSERT INTO `+s.name+` (key, value)
VALUES(?, ?)
ON CONFLICT(key)
DO UPDATE SET value=excluded.value;`,
		key, buf.Bytes())
	return err
}

// Delete removes key without checking if it existed.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM `+s.name+` WHERE key = ?;`, key)
	return err
}

func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM ` + s.name + `;`).Scan(&n)
	return n, err
}

// Keys returns every key in the store, sorted.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM ` + s.name + ` ORDER BY key;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
