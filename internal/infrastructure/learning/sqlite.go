package learning

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/pkg/filesystem"
)

// SQLiteRepository persists patterns in a SQLite database. When the
// database cannot be opened the repository degrades to a no-op so the store
// still works in memory.
type SQLiteRepository struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteRepository creates (or opens) the patterns database. An empty
// path selects ~/.kestrel/patterns/patterns.db.
func NewSQLiteRepository(path string) *SQLiteRepository {
	if path == "" {
		path = filepath.Join(filesystem.DataDir(), "patterns", "patterns.db")
	}
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteRepository{path: path}
	}
	repo := &SQLiteRepository{db: db, path: path}
	if err := repo.init(); err != nil {
		_ = db.Close()
		return &SQLiteRepository{path: path}
	}
	return repo
}

func (r *SQLiteRepository) init() error {
	if r.db == nil {
		return os.ErrInvalid
	}
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS patterns (
		signature TEXT PRIMARY KEY,
		pattern_id TEXT,
		pattern_type TEXT,
		confidence REAL,
		observations INTEGER,
		first_seen TEXT,
		last_seen TEXT
	);`)
	return err
}

// LoadAll returns every persisted pattern.
func (r *SQLiteRepository) LoadAll() ([]domain.VulnerabilityPattern, error) {
	if r.db == nil {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT signature, pattern_id, pattern_type, confidence, observations, first_seen, last_seen FROM patterns`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []domain.VulnerabilityPattern
	for rows.Next() {
		var pattern domain.VulnerabilityPattern
		var firstSeen, lastSeen string
		if err := rows.Scan(&pattern.Signature, &pattern.PatternID, &pattern.PatternType, &pattern.Confidence, &pattern.Observations, &firstSeen, &lastSeen); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, firstSeen); err == nil {
			pattern.FirstSeen = t
		}
		if t, err := time.Parse(time.RFC3339, lastSeen); err == nil {
			pattern.LastSeen = t
		}
		patterns = append(patterns, pattern)
	}
	return patterns, rows.Err()
}

// Upsert inserts or updates a pattern keyed by signature.
func (r *SQLiteRepository) Upsert(pattern domain.VulnerabilityPattern) error {
	if r.db == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO patterns
		(signature, pattern_id, pattern_type, confidence, observations, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			confidence = excluded.confidence,
			observations = excluded.observations,
			last_seen = excluded.last_seen`,
		pattern.Signature,
		pattern.PatternID,
		pattern.PatternType,
		pattern.Confidence,
		pattern.Observations,
		pattern.FirstSeen.Format(time.RFC3339),
		pattern.LastSeen.Format(time.RFC3339),
	)
	return err
}

// Clear drops every persisted pattern.
func (r *SQLiteRepository) Clear() error {
	if r.db == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`DELETE FROM patterns`)
	return err
}

// Available reports whether the backing database opened successfully.
func (r *SQLiteRepository) Available() bool {
	return r.db != nil
}

// Path returns the database location, for diagnostics.
func (r *SQLiteRepository) Path() string {
	return r.path
}

var _ Repository = (*SQLiteRepository)(nil)
