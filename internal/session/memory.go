package session

import "sync"

// MemoryStore is a Store that never touches the filesystem.
type MemoryStore struct {
	mu     sync.Mutex
	path   string
	exists bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the saved path. Like FileStore, it marks the session as
// existing even when nothing was saved.
func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = true
	return s.path, nil
}

func (s *MemoryStore) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.exists = true
	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return ErrNotFound
	}
	s.path = ""
	s.exists = false
	return nil
}

// Exists reports whether a session is currently stored.
func (s *MemoryStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exists
}
