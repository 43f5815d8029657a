// Package store caches built artifacts in a SQLite database, keyed by the
// content hash of the compiler bundle and the build options.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested artifact is not cached.
var ErrNotFound = errors.New("artifact not found")

// Key identifies one cached build.
type Key [32]byte

// String returns the lowercase hex form.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// ParseKey decodes the hex form produced by String.
func ParseKey(s string) (Key, error) {
	var k Key
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("store: bad key %q: %w", s, err)
	}
	if len(b) != len(k) {
		return k, fmt.Errorf("store: bad key %q: %d bytes", s, len(b))
	}
	copy(k[:], b)
	return k, nil
}

var keyEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	keyEncMode = em
}

// NewKey hashes the input bundle together with the canonical CBOR encoding
// of the options that shape the artifact.
func NewKey(input []byte, opts any) (Key, error) {
	o, err := keyEncMode.Marshal(opts)
	if err != nil {
		return Key{}, fmt.Errorf("store: encode options: %w", err)
	}
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(input)))
	h.Write(n[:])
	h.Write(input)
	h.Write(o)
	var k Key
	copy(k[:], h.Sum(nil))
	return k, nil
}

// Store is a SQLite-backed artifact cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		key  TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		size INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores data under k, replacing any previous entry.
func (s *Store) Put(k Key, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO artifacts (key, data, size) VALUES (?, ?, ?)",
		k.String(), data, len(data),
	)
	if err != nil {
		return fmt.Errorf("store: saving %s: %w", k, err)
	}
	return nil
}

// Get returns the data stored under k, or ErrNotFound.
func (s *Store) Get(k Key) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM artifacts WHERE key = ?", k.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: %s: %w", k, ErrNotFound)
		}
		return nil, fmt.Errorf("store: querying %s: %w", k, err)
	}
	return data, nil
}

// Delete removes k. Deleting a missing key is not an error.
func (s *Store) Delete(k Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM artifacts WHERE key = ?", k.String()); err != nil {
		return fmt.Errorf("store: deleting %s: %w", k, err)
	}
	return nil
}

// Keys returns every cached key in ascending order.
func (s *Store) Keys() ([]Key, error) {
	rows, err := s.db.Query("SELECT key FROM artifacts ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("store: listing keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("store: scanning key: %w", err)
		}
		k, err := ParseKey(s)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: listing keys: %w", err)
	}
	return keys, nil
}

// Size returns the total number of cached bytes.
func (s *Store) Size() (int64, error) {
	var n sql.NullInt64
	if err := s.db.QueryRow("SELECT SUM(size) FROM artifacts").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: summing sizes: %w", err)
	}
	return n.Int64, nil
}
