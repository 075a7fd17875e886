// Package artifact provides filesystem access to target artifacts and the
// per-path lock discipline mutating tools rely on.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kestrelsec/kestrel/internal/ports"
)

// Store reads and writes target artifacts on the local filesystem.
type Store struct{}

// NewStore builds a filesystem-backed artifact store.
func NewStore() *Store {
	return &Store{}
}

// Read implements ports.ArtifactStore.
func (s *Store) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", path, err)
	}
	return string(data), nil
}

// Write implements ports.ArtifactStore. The artifact keeps its existing
// permissions when present.
func (s *Store) Write(path string, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// LockManager hands out one mutex per canonical artifact path, so actions
// targeting the same artifact serialize while independent artifacts proceed
// concurrently.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockManager builds an empty lock manager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*sync.Mutex)}
}

// Lock implements ports.ArtifactLocker.
func (m *LockManager) Lock(path string) func() {
	canonical := path
	if abs, err := filepath.Abs(path); err == nil {
		canonical = abs
	}

	m.mu.Lock()
	lock, ok := m.locks[canonical]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[canonical] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

var (
	_ ports.ArtifactStore  = (*Store)(nil)
	_ ports.ArtifactLocker = (*LockManager)(nil)
)
